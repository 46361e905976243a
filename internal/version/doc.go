// Package version exposes build metadata of the modbuilder binary itself.
//
// Version, Commit and BuildTime are injected with -ldflags at release time.
// They describe the tool, not the module being packaged.
package version
