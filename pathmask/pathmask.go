// Package pathmask decides which paths a store may serve.
//
// A store's mask is a list of patterns. A path is allowed when any pattern
// matches it. Three forms are recognized:
//
//	org/commonjava/          plain prefix
//	r|^org/.+\.pom$|         regular expression
//	g|org/**/*.jar|          glob, '/' separated
//
// An empty pattern list allows every path. Metadata files and directory
// listings are also allowed when they lie above a plain prefix, so clients
// can browse down to the content the mask admits.
package pathmask

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/jmgilman/go/errors"
)

const (
	regexDelim = "r|"
	globDelim  = "g|"
)

// metadataFiles are listing-like files that pass when their directory lies
// above a plain pattern.
var metadataFiles = map[string]bool{
	"maven-metadata.xml": true,
	"package.json":       true,
}

type matcher interface {
	Match(string) bool
}

type prefixMatcher string

func (p prefixMatcher) Match(path string) bool {
	return strings.HasPrefix(path, string(p))
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (r regexMatcher) Match(path string) bool {
	return r.re.MatchString(path)
}

// Mask is a compiled pattern list. The zero value allows everything.
type Mask struct {
	matchers []matcher
	prefixes []string
}

// Compile parses patterns into a Mask.
func Compile(patterns []string) (*Mask, error) {
	m := &Mask{}
	for _, raw := range patterns {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}

		switch {
		case isDelimited(p, regexDelim):
			re, err := regexp.Compile(p[len(regexDelim) : len(p)-1])
			if err != nil {
				return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig, "invalid path mask regex",
					map[string]interface{}{"pattern": raw})
			}
			m.matchers = append(m.matchers, regexMatcher{re: re})
		case isDelimited(p, globDelim):
			g, err := glob.Compile(strings.TrimPrefix(p[len(globDelim):len(p)-1], "/"), '/')
			if err != nil {
				return nil, errors.WrapWithContext(err, errors.CodeInvalidConfig, "invalid path mask glob",
					map[string]interface{}{"pattern": raw})
			}
			m.matchers = append(m.matchers, g)
		default:
			prefix := strings.TrimPrefix(p, "/")
			m.matchers = append(m.matchers, prefixMatcher(prefix))
			m.prefixes = append(m.prefixes, prefix)
		}
	}
	return m, nil
}

func isDelimited(p, open string) bool {
	return len(p) > len(open) && strings.HasPrefix(p, open) && strings.HasSuffix(p, "|")
}

// Empty reports whether the mask has no patterns.
func (m *Mask) Empty() bool {
	return m == nil || len(m.matchers) == 0
}

// Allows reports whether path passes the mask.
func (m *Mask) Allows(path string) bool {
	if m.Empty() {
		return true
	}

	path = strings.TrimPrefix(path, "/")
	for _, mt := range m.matchers {
		if mt.Match(path) {
			return true
		}
	}
	return m.allowsListing(path)
}

// allowsListing admits directories and metadata files that are ancestors of
// a plain prefix.
func (m *Mask) allowsListing(path string) bool {
	dir := ""
	switch {
	case path == "" || strings.HasSuffix(path, "/"):
		dir = path
	default:
		idx := strings.LastIndex(path, "/")
		if !metadataFiles[path[idx+1:]] {
			return false
		}
		dir = path[:idx+1]
	}

	for _, prefix := range m.prefixes {
		if strings.HasPrefix(prefix, dir) {
			return true
		}
	}
	return false
}
