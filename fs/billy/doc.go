// Package billy provides go-billy backed implementations of core.FS.
//
// NewLocal stores content under a directory on the local disk through
// osfs; NewMemory keeps everything in memory through memfs, which is what
// the engine's tests run against.
//
//	store := billy.NewLocal("/var/lib/aggregator")
//	err := store.WriteFile("maven/hosted/local/org/foo/maven-metadata.xml", data, 0o644)
//
// # Thread Safety
//
// FS instances are safe for concurrent use. The memory backend serializes
// tree mutations and buffers writes until Close so readers never observe a
// half-written file. File handles are not safe for concurrent use.
package billy
