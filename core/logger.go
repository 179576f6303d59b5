package core

import "time"

type (
	// Logger is any service that can log & report messages.
	// expected args: error, map[string]interface{}, or any value implementing fmt.Stringer
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Metrics records engine counters & latencies.
	Metrics interface {
		CheckIn(result string)
		ConflictRetry()
		LeaderboardBuilt(scope string, cached bool, elapsed time.Duration)
	}
)

// check-in results
const (
	CheckInApplied  = "applied"
	CheckInNoop     = "noop"
	CheckInRejected = "rejected"
	CheckInFailed   = "failed"
)

type nopMetrics struct{}

func (nopMetrics) CheckIn(string)                               {}
func (nopMetrics) ConflictRetry()                               {}
func (nopMetrics) LeaderboardBuilt(string, bool, time.Duration) {}

// NopMetrics discards everything.
var NopMetrics Metrics = nopMetrics{}
