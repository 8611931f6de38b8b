package store

import (
	"fmt"
	"strings"

	"github.com/jmgilman/go/errors"
)

// Type is the kind of a store.
type Type string

const (
	// Hosted stores hold content owned by the engine.
	Hosted Type = "hosted"
	// Remote stores proxy a single external origin.
	Remote Type = "remote"
	// Group stores aggregate an ordered list of other stores.
	Group Type = "group"
)

// Valid reports whether t is a known store type.
func (t Type) Valid() bool {
	switch t {
	case Hosted, Remote, Group:
		return true
	}
	return false
}

// Package types with dedicated content generators.
const (
	PackageMaven   = "maven"
	PackageNPM     = "npm"
	PackageGeneric = "generic-http"
)

// Key identifies a store. Keys are comparable and safe to use as map keys.
type Key struct {
	PackageType string
	Type        Type
	Name        string
}

// NewKey returns a key.
func NewKey(packageType string, typ Type, name string) Key {
	return Key{PackageType: packageType, Type: typ, Name: name}
}

// String renders the key as packageType:type:name.
func (k Key) String() string {
	return k.PackageType + ":" + string(k.Type) + ":" + k.Name
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// ParseKey parses packageType:type:name. The two-part form type:name is
// accepted and defaults the package type to maven.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")

	var key Key
	switch len(parts) {
	case 2:
		key = NewKey(PackageMaven, Type(parts[0]), parts[1])
	case 3:
		key = NewKey(parts[0], Type(parts[1]), parts[2])
	default:
		return Key{}, errors.Newf(errors.CodeInvalidInput, "invalid store key %q", s)
	}

	if !key.Type.Valid() {
		return Key{}, errors.Newf(errors.CodeInvalidInput, "invalid store type %q in key %q", key.Type, s)
	}
	if key.PackageType == "" || key.Name == "" {
		return Key{}, errors.Newf(errors.CodeInvalidInput, "invalid store key %q", s)
	}
	return key, nil
}

// MustParseKey is like ParseKey but panics on error. Intended for tests and
// static tables.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(fmt.Sprintf("store: %v", err))
	}
	return k
}
