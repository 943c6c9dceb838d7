package learner

import "fmt"

// ConfigurationError is returned when a strategy with malformed parameters
// is registered. Registration rejects bad strategies up front; they are
// never silently accepted into the registry.
type ConfigurationError struct {
	StrategyID string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("strategy %s: invalid configuration: %s", e.StrategyID, e.Reason)
}

// ExecutionError wraps an unexpected fault from one of the pipeline stages.
// A Learn invocation that hits one fails atomically: no partial result is
// returned, and retrying is safe because each invocation is stateless apart
// from registry reads.
type ExecutionError struct {
	Stage string // "partition", "select", "execute", "evaluate"
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("learn %s stage failed: %v", e.Stage, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
