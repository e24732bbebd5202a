// Package metrics provides the observability hooks for buildstamp.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	exec := build.NewExecutor(runner, logger).WithRecorder(recorder)
//
// When --metrics-file is given the CLI swaps in a PrometheusRecorder backed by
// a private registry and, on exit, writes that registry with WriteTextfile in
// the text exposition format read by the node_exporter textfile collector.
package metrics
