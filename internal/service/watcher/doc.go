// Package watcher rebuilds the module whenever its inputs change.
//
// It watches the project tree (minus the build directory) and the prebuilt
// output directory, collapses bursts of events into one rebuild after a quiet
// period and runs builds one at a time from the event loop.
package watcher
