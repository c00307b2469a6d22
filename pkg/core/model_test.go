package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModel_Upstream(t *testing.T) {
	tests := []struct {
		name  string
		model *Model
		want  []string
	}{
		{
			name: "staging has no upstream models",
			model: &Model{
				Name:   "stg_orders",
				Source: &SourceTable{Ref: SourceRef{Namespace: "ecommerce_data", Table: "olist_orders"}},
			},
			want: nil,
		},
		{
			name: "target lists from and joins once each",
			model: &Model{
				Name: "dim_orders",
				From: "stg_order_items",
				Joins: []Join{
					{Model: "stg_orders", Type: JoinInner},
					{Model: "stg_order_payments", Type: JoinInner},
					{Model: "stg_orders", Type: JoinInner},
				},
			},
			want: []string{"stg_order_items", "stg_orders", "stg_order_payments"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.model.Upstream())
		})
	}
}

func TestSchemaConfig_WithDefaults(t *testing.T) {
	s := SchemaConfig{Target: "marts"}.WithDefaults()

	assert.Equal(t, DefaultSourceSchema, s.Source)
	assert.Equal(t, DefaultStagingSchema, s.Staging)
	assert.Equal(t, "marts", s.Target)
	assert.Equal(t, "marts", s.For(DestinationTarget))
	assert.Equal(t, DefaultStagingSchema, s.For(DestinationStaging))
}

func TestCastRule_OutputName(t *testing.T) {
	assert.Equal(t, "price", CastRule{Column: "price", Type: TypeNumeric}.OutputName())
	assert.Equal(t, "has_company", CastRule{Column: "has_comnpany", As: "has_company", Type: TypeString}.OutputName())
	assert.False(t, SemanticType("boolean").Valid())
	assert.True(t, TypeTimestamp.Valid())
}
