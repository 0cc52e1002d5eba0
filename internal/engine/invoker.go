/*
PURPOSE:
  The AgentInvoker contract and the two-class error taxonomy the retry
  loop is built on.

REQUIREMENTS:
  User-specified:
  - One call = one network round trip returning text plus token counts.
  - Failures are tagged transient (retry) or permanent (terminal).

  Implementation-discovered:
  - The retry decision must be a pure function of the error kind, so the
    taxonomy is carried as wrapper error types, not exception hierarchies.
  - An untagged error from an invoker is treated as transient: retrying a
    permanent failure wastes two attempts, dropping a transient one loses
    the comparison.

ARCHITECTURE INTEGRATION:
  - Implemented by: internal/engine/client.go (HTTP), test doubles.
  - Consumed by: internal/engine/engine.go

ERROR HANDLING:
  - IsTransient / IsPermanent classify via errors.As over wrapped chains.

IMPLEMENTATION RULES:
  - The per-attempt timeout arrives as a context deadline; invokers must
    honor ctx and surface deadline expiry as a TransientError.

USAGE:
  res, err := invoker.Invoke(ctx, question, modelName)
  if engine.IsPermanent(err) { ... }

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/client.go
  - internal/engine/engine.go

MAINTENANCE:
  - Keep the taxonomy two-class; new failure kinds map onto one of them.
*/

package engine

import (
	"context"
	"errors"
)

// InvokeResult is what a successful invocation returns.
type InvokeResult struct {
	Response         string
	PromptTokens     int
	CompletionTokens int
}

// AgentInvoker performs one remote model call. The context carries the
// per-attempt deadline; implementations must not outlive it.
type AgentInvoker interface {
	Invoke(ctx context.Context, question, modelName string) (InvokeResult, error)
}

// InvokerFunc adapts a function to the AgentInvoker interface.
type InvokerFunc func(ctx context.Context, question, modelName string) (InvokeResult, error)

func (f InvokerFunc) Invoke(ctx context.Context, question, modelName string) (InvokeResult, error) {
	return f(ctx, question, modelName)
}

// TransientError marks a failure worth retrying: timeouts, connection
// resets, overloaded servers.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure no retry can fix: unknown model,
// malformed request or response.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is tagged permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsTransient reports whether err should feed the retry loop. Untagged
// errors count as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return !IsPermanent(err)
}

// isTimeout reports whether err stems from a deadline expiry, for the
// timeout counter in Stats.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
