// Package stager fills the "system" subtree of the staging root from the
// static assets directory and the prebuilt outputs, then makes the module's
// daemon executable.
//
// Every source is optional: a missing directory is skipped, an I/O failure
// aborts the build without rolling back what was already copied.
package stager
