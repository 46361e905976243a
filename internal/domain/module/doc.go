// Package module contains the core domain types of a flashable module build.
//
// Package describes the metadata written into module.prop and the archive
// name, Service the privileged daemon shipped with the module, and Paths the
// directories a single build reads from and writes to.
package module
