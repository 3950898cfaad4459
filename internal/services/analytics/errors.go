package analytics

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a window with no usable samples. It is a
// reportable outcome, not a failure: callers render it as "no signal".
var ErrInsufficientData = errors.New("insufficient data in window")

// ConfigError reports a threshold outside its valid range. Unlike data
// anomalies it is fatal at call time and must be resolved before analysis.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("analysis config: %s %s", e.Field, e.Reason)
}
