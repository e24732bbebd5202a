package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// ResultFor maps an error to the label recorded for it.
func ResultFor(err error, canceled bool) ResultLabel {
	switch {
	case err == nil:
		return ResultSuccess
	case canceled:
		return ResultCanceled
	default:
		return ResultFailed
	}
}

// Recorder defines observability hooks for version resolution, compilation,
// image pushes and the watch loop. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveResolveDuration(d time.Duration)
	ObserveCompileDuration(target string, d time.Duration, result ResultLabel)
	IncCommandResult(action string, result ResultLabel)
	IncPushResult(registry string, result ResultLabel)
	IncPushRetry(registry string)
	IncWatchTrigger(action string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveResolveDuration(time.Duration)                     {}
func (NoopRecorder) ObserveCompileDuration(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncCommandResult(string, ResultLabel)                     {}
func (NoopRecorder) IncPushResult(string, ResultLabel)                        {}
func (NoopRecorder) IncPushRetry(string)                                      {}
func (NoopRecorder) IncWatchTrigger(string)                                   {}
