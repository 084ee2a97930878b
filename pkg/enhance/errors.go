package enhance

import "fmt"

// ConfigError reports a structural problem with a registry or pipeline:
// a duplicate enhancer or pipeline name, a dependency cycle, or a
// dependency naming an enhancer that is not present. It is always raised
// synchronously at registration or construction time and leaves the
// registry or pipeline unchanged.
type ConfigError struct {
	// Op identifies the failing operation, e.g. "register" or "create pipeline".
	Op string

	// Name is the enhancer or pipeline name involved.
	Name string

	// Reason describes what is wrong.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("enhance: %s %q: %s", e.Op, e.Name, e.Reason)
	}
	return fmt.Sprintf("enhance: %s: %s", e.Op, e.Reason)
}

func configErrorf(op, name, format string, args ...any) *ConfigError {
	return &ConfigError{Op: op, Name: name, Reason: fmt.Sprintf(format, args...)}
}

// EnhancementError reports that an enhancer failed or timed out during a
// pipeline run. With ContinueOnError it is recorded on the response;
// otherwise Process returns it and remaining enhancers do not run.
type EnhancementError struct {
	// Enhancer is the name of the failing enhancer.
	Enhancer string

	// TimedOut is true when the enhancer exceeded the pipeline timeout.
	// A timed-out enhancer is abandoned, not cancelled: its goroutine may
	// still complete and produce side effects after the pipeline moves on.
	TimedOut bool

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *EnhancementError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("enhance: enhancer %q timed out: %v", e.Enhancer, e.Err)
	}
	return fmt.Sprintf("enhance: enhancer %q failed: %v", e.Enhancer, e.Err)
}

// Unwrap returns the underlying error.
func (e *EnhancementError) Unwrap() error { return e.Err }
