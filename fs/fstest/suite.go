// Package fstest provides a conformance suite for core.FS implementations.
//
// The engine relies on a narrow set of behaviors from its storage backend:
// whole-file reads and writes, sorted directory listings, existence checks
// that treat missing files as a normal outcome, renames that replace their
// target and recursive removal. Each backend package runs the suite against a
// fresh filesystem:
//
//	func TestConformance(t *testing.T) {
//	    fstest.TestSuite(t, func() core.FS { return billy.NewMemory() })
//	}
package fstest

import (
	"testing"

	"github.com/jmgilman/go/fs/core"
)

// FSTestConfig adapts the suite to backend characteristics.
type FSTestConfig struct {
	// VirtualDirectories indicates directories only exist through the files
	// beneath them (object-store prefixes).
	VirtualDirectories bool

	// SkipTests lists subtests to skip, e.g. "Rename".
	SkipTests []string
}

// POSIXTestConfig returns configuration for local and memory backends.
func POSIXTestConfig() FSTestConfig {
	return FSTestConfig{}
}

// S3TestConfig returns configuration for S3-compatible backends.
func S3TestConfig() FSTestConfig {
	return FSTestConfig{VirtualDirectories: true}
}

// TestSuite runs the suite with POSIXTestConfig.
func TestSuite(t *testing.T, newFS func() core.FS) {
	TestSuiteWithConfig(t, newFS, POSIXTestConfig())
}

// TestSuiteWithConfig runs every conformance test against a fresh filesystem.
func TestSuiteWithConfig(t *testing.T, newFS func() core.FS, config FSTestConfig) {
	tests := []struct {
		name string
		fn   func(*testing.T, core.FS, FSTestConfig)
	}{
		{"ReadWrite", testReadWrite},
		{"CreateImplicitParents", testCreateImplicitParents},
		{"Exists", testExists},
		{"ReadDirSorted", testReadDirSorted},
		{"NotExist", testNotExist},
		{"Rename", testRename},
		{"Remove", testRemove},
		{"RemoveAll", testRemoveAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, skip := range config.SkipTests {
				if skip == tt.name {
					t.Skip("Skipped by provider configuration")
				}
			}
			tt.fn(t, newFS(), config)
		})
	}
}
