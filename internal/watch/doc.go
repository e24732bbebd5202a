// Package watch re-runs an action whenever a source file changes.
//
// Changes are detected either with filesystem notifications (fsnotify) or by
// polling file modification times on a fixed interval (gocron). Runs are
// serialized: while an action runs, further changes coalesce into a single
// follow-up run. In restart mode a change instead cancels the running action
// and starts it again, which is what watch-run uses for long-lived programs.
//
// After every completed run a full-width separator line is printed, green on
// success and reverse-video red on failure.
package watch
