// Package config defines the build settings of a module and helpers to load,
// validate and save them in YAML format.
//
// Every field has a built-in default, so a project without modbuilder.yaml
// builds the stock module. Values end up inside shell scripts verbatim, which
// is why Validate rejects anything that could change a script's meaning.
package config
