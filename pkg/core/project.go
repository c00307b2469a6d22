package core

// Default logical schema names.
const (
	DefaultSourceSchema  = "ecommerce_data"
	DefaultStagingSchema = "data_staging"
	DefaultTargetSchema  = "data_target"
)

// SchemaConfig names the namespaces raw and derived relations live in.
type SchemaConfig struct {
	Source  string `koanf:"source" json:"source" yaml:"source"`
	Staging string `koanf:"staging" json:"staging" yaml:"staging"`
	Target  string `koanf:"target" json:"target" yaml:"target"`
}

// DefaultSchemas returns the schema layout used when nothing is configured.
func DefaultSchemas() SchemaConfig {
	return SchemaConfig{
		Source:  DefaultSourceSchema,
		Staging: DefaultStagingSchema,
		Target:  DefaultTargetSchema,
	}
}

// WithDefaults fills empty fields from DefaultSchemas.
func (s SchemaConfig) WithDefaults() SchemaConfig {
	d := DefaultSchemas()
	if s.Source == "" {
		s.Source = d.Source
	}
	if s.Staging == "" {
		s.Staging = d.Staging
	}
	if s.Target == "" {
		s.Target = d.Target
	}
	return s
}

// For returns the schema a destination writes into.
func (s SchemaConfig) For(dest Destination) string {
	if dest == DestinationTarget {
		return s.Target
	}
	return s.Staging
}

// TargetConfig holds warehouse target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, memory

	// File-based databases (DuckDB)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, settings)
	Params map[string]any `koanf:"params"`
}

// AdapterConfig converts the target into the adapter connection config.
func (t *TargetConfig) AdapterConfig() AdapterConfig {
	return AdapterConfig{
		Type:     t.Type,
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}
