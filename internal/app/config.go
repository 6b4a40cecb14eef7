package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Strategies accepted by Config.Strategy.
const (
	StrategyPhased    = "phased"
	StrategyConfluent = "confluent"
	StrategyLinear    = "linear"
)

// ErrInvalidConfig is wrapped by every error NewConfig returns.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ScriptPath   string // reconfiguration text
	TopologyPath string // hcl files
	// Namespace replaces the loaded configuration's namespace in kubectl
	// commands when set.
	Namespace string `validate:"omitempty,max=63"`

	Strategy   string        `validate:"oneof=phased confluent linear"`
	Workers    int           `validate:"gte=1,lte=1024"`
	Backoff    time.Duration `validate:"gte=0"`
	DryRun     bool
	HistoryDSN string

	LogFormat   string `validate:"oneof=text json"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	MetricsAddr string `validate:"omitempty,hostname_port"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := validate.Struct(cfg); err != nil {
		var fields validator.ValidationErrors
		if !errors.As(err, &fields) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		problems := make([]string, 0, len(fields))
		for _, fe := range fields {
			problems = append(problems, describe(fe))
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return &cfg, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s %q must be one of %s", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "lte", "max":
		return fmt.Sprintf("%s %v violates %s=%s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	case "hostname_port":
		return fmt.Sprintf("%s %q is not a host:port address", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed the %q check", fe.Field(), fe.Tag())
	}
}
