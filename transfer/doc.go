// Package transfer is the raw content accessor. It maps (store, path) pairs
// onto a core.FS, fetches remote content into that storage on demand and
// exposes Transfer handles the rest of the engine exchanges.
//
// Every store owns a subtree of the filesystem:
//
//	<packageType>/<type>-<name>/<path>
//
// Writes go to a unique file under .temp and are renamed into place, so a
// reader sees either the previous content or the complete new content.
package transfer
