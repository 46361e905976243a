// Package archiver compresses a staging root into the module zip.
//
// Entries are written in lexical order with a fixed timestamp, so identical
// staging trees produce identical archives. The zip is first written to a
// temporary file next to the destination and then moved into place with
// go-update after its checksum is verified; a failed run never leaves a
// truncated archive at the final path.
package archiver
