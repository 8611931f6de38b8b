// Package generator implements the content generator chain.
//
// Generators synthesize content the stores do not literally hold: a version
// index derived from a directory listing, or the merge of every member's copy
// of an index for a group. Each generator claims a set of filenames for one
// package type and the Chain dispatches through that registry, so a path has
// at most one owner.
//
// Merged content for groups is produced by MergeStore: member copies are
// fetched concurrently but handed to the merge function in member order, the
// result is written atomically next to checksum siblings (.md5, .sha1,
// .sha256) and an .info sidecar recording the contributing sources and
// their digests. Concurrent requests for the same group path share one
// generation.
package generator
