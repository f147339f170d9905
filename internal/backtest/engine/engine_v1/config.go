package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/sizing"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPeriodsPerYear assumes daily bars.
const DefaultPeriodsPerYear = 252

// DefaultLogLevel keeps per-order events out of the console.
const DefaultLogLevel = "warn"

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash of the account,exclusiveMinimum=0,default=100000" validate:"gt=0"`
	Symbol         string                     `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Instrument key in the contract file" validate:"required"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	RiskFreeRate   float64                    `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Annual risk free rate used by the Sharpe ratio,minimum=0,default=0" validate:"gte=0"`
	PeriodsPerYear int                        `yaml:"periods_per_year" json:"periods_per_year" jsonschema:"title=Periods Per Year,description=Number of bars in a year,minimum=1,default=252" validate:"gt=0"`
	EngineVersion  string                     `yaml:"engine_version" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Engine version the configuration was written for"`
	LogLevel       string                     `yaml:"log_level" json:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=warn" validate:"omitempty,oneof=debug info warn error"`
	Strategy       strategy.Config            `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy"`
	Sizing         sizing.Config              `yaml:"sizing" json:"sizing" jsonschema:"title=Sizing"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Fields missing from the document keep their current value, so decoding into
// DefaultConfig() fills in defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		InitialCapital float64         `yaml:"initial_capital"`
		Symbol         string          `yaml:"symbol"`
		StartTime      *time.Time      `yaml:"start_time"`
		EndTime        *time.Time      `yaml:"end_time"`
		RiskFreeRate   float64         `yaml:"risk_free_rate"`
		PeriodsPerYear int             `yaml:"periods_per_year"`
		EngineVersion  string          `yaml:"engine_version"`
		LogLevel       string          `yaml:"log_level"`
		Strategy       strategy.Config `yaml:"strategy"`
		Sizing         sizing.Config   `yaml:"sizing"`
	}

	config := Config{
		InitialCapital: c.InitialCapital,
		Symbol:         c.Symbol,
		StartTime:      nil,
		EndTime:        nil,
		RiskFreeRate:   c.RiskFreeRate,
		PeriodsPerYear: c.PeriodsPerYear,
		EngineVersion:  c.EngineVersion,
		LogLevel:       c.LogLevel,
		Strategy:       c.Strategy,
		Sizing:         c.Sizing,
	}

	if err := value.Decode(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Symbol = config.Symbol
	c.RiskFreeRate = config.RiskFreeRate
	c.PeriodsPerYear = config.PeriodsPerYear
	c.EngineVersion = config.EngineVersion
	c.LogLevel = config.LogLevel
	c.Strategy = config.Strategy
	c.Sizing = config.Sizing

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// ParseConfig decodes a YAML configuration on top of DefaultConfig and validates it.
func ParseConfig(content string) (BacktestEngineV1Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return BacktestEngineV1Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	if err := config.Validate(); err != nil {
		return BacktestEngineV1Config{}, err
	}

	return config, nil
}

// Validate validates the BacktestEngineV1Config struct.
func (c *BacktestEngineV1Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	if err := c.Sizing.Validate(); err != nil {
		return err
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "end_time %s is before start_time %s",
			c.EndTime.Unwrap().Format(time.RFC3339), c.StartTime.Unwrap().Format(time.RFC3339))
	}

	if c.EngineVersion != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), c.EngineVersion); err != nil {
			return err
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns a BacktestEngineV1Config with default values.
// Symbol and the strategy's stop loss distance have no default and must be configured.
func DefaultConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: 100000,
		Symbol:         "",
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		RiskFreeRate:   0,
		PeriodsPerYear: DefaultPeriodsPerYear,
		EngineVersion:  "",
		LogLevel:       DefaultLogLevel,
		Strategy:       strategy.DefaultConfig(),
		Sizing:         sizing.DefaultConfig(),
	}
}

// TestConfig returns a ready to run configuration for tests.
func TestConfig(symbol string, stopLossDistance float64) BacktestEngineV1Config {
	config := DefaultConfig()
	config.Symbol = symbol
	config.Strategy.StopLossDistance = stopLossDistance

	return config
}
