package core

// JoinType is the join operator between two model inputs.
type JoinType string

// JoinInner keeps only rows with matching keys on both sides.
// Inner joins are the only join type models declare.
const JoinInner JoinType = "INNER"

// JoinKey is one equality predicate of a join:
// LeftModel.LeftColumn = <joined model>.RightColumn.
type JoinKey struct {
	LeftModel   string `json:"left_model" yaml:"left_model"`
	LeftColumn  string `json:"left_column" yaml:"left_column"`
	RightColumn string `json:"right_column" yaml:"right_column"`
}

// Join adds one more input to a target model.
type Join struct {
	Model string    `json:"model" yaml:"model"`
	Type  JoinType  `json:"type" yaml:"type"`
	On    []JoinKey `json:"on" yaml:"on"`
}
