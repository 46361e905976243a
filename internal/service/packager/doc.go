// Package packager runs the module build pipeline.
//
// A build plans the directory layout, stages static and prebuilt files,
// generates the module scripts and metadata, archives the staging tree and
// records a manifest next to the archive. Steps run strictly in order and the
// first failure aborts the build; nothing is rolled back.
package packager
