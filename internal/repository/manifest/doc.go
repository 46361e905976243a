// Package manifest persists the build manifest written next to each archive.
//
// The manifest records what went into an archive (entry checksums, the
// archive checksum and size) and where it came from (source revision, build id).
// It lives outside the staging tree and never ends up inside the archive.
package manifest
