package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// DefaultSlowThreshold is the execution time above which DefaultTelemetry
// reports a command as slow.
const DefaultSlowThreshold = 500 * time.Millisecond

// TelemetryStatus is the outcome class of a command execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo describes one command execution. Logger already carries
// Fields.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Slow reports whether the execution took longer than threshold.
func (i TelemetryInfo) Slow(threshold time.Duration) bool {
	return threshold > 0 && i.Duration > threshold
}

// Telemetry is called after every command execution.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs outcomes. Successful executions log at debug level,
// or at warn level once they exceed slow (zero disables the check).
// Failures always log at error level. fallback is used when the execution
// carries no logger.
func DefaultTelemetry[T command.Message](fallback interfaces.Logger, slow time.Duration) Telemetry[T] {
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := info.Logger
		if entry == nil {
			entry = logging.WithFields(fallback, info.Fields)
		}
		if entry == nil {
			entry = logging.NoOp()
		}

		args := []any{"duration_ms", info.Duration.Milliseconds()}
		switch {
		case info.Status == TelemetryStatusContextError:
			entry.Error("command.execute.context_error", append(args, "error", info.Error)...)
		case info.Status != TelemetryStatusSuccess:
			entry.Error("command.execute.failed", append(args, "error", info.Error)...)
		case info.Slow(slow):
			entry.Warn("command.execute.slow", append(args, "threshold_ms", slow.Milliseconds())...)
		default:
			entry.Debug("command.execute.success", args...)
		}
	}
}
