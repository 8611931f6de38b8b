// Package store models artifact stores and resolves group membership.
//
// A store is identified by a Key of (package type, store type, name). Hosted
// stores own content, remote stores proxy one origin and groups are ordered
// lists of other stores, possibly nested. Resolver flattens a group into the
// ordered, deduplicated list of concrete members that requests fan out to.
//
// MemoryRegistry is an in-process implementation of the Registry query
// interface, suitable for tests and for the CLI driver which loads store
// definitions from configuration.
package store
