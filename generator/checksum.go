package generator

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/opencontainers/go-digest"
)

// Algorithm names a checksum algorithm.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
)

// Algorithms lists the checksum siblings written next to generated content.
var Algorithms = []Algorithm{MD5, SHA1, SHA256}

// Suffix returns the sibling file suffix, e.g. ".sha1".
func (a Algorithm) Suffix() string {
	return "." + string(a)
}

// Sum returns the lowercase hex checksum of data.
func (a Algorithm) Sum(data []byte) string {
	switch a {
	case MD5:
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:])
	case SHA1:
		sum := sha1.Sum(data)
		return hex.EncodeToString(sum[:])
	default:
		return digest.SHA256.FromBytes(data).Encoded()
	}
}

// ParseAlgorithm returns the algorithm named s.
func ParseAlgorithm(s string) (Algorithm, bool) {
	a := Algorithm(strings.ToLower(strings.TrimPrefix(s, ".")))
	for _, known := range Algorithms {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// SplitChecksum separates a checksum suffix from path. The suffix is empty
// when path is not a checksum file.
func SplitChecksum(path string) (base string, alg Algorithm) {
	for _, a := range Algorithms {
		if b, ok := strings.CutSuffix(path, a.Suffix()); ok {
			return b, a
		}
	}
	return path, ""
}
