// Package common holds helpers shared by several services.
//
// It provides SHA-512 checksums in the encoding used by build manifests and
// the build lock that keeps two builds from sharing one build directory.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
