package maven

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jmgilman/go/store"
)

// Qualifier ranks. Unknown qualifiers sort after sp, lexically.
const (
	rankAlpha = iota
	rankBeta
	rankMilestone
	rankRC
	rankSnapshot
	rankRelease
	rankSP
	rankUnknown
)

var qualifierRanks = map[string]int{
	"alpha":     rankAlpha,
	"a":         rankAlpha,
	"beta":      rankBeta,
	"b":         rankBeta,
	"milestone": rankMilestone,
	"m":         rankMilestone,
	"rc":        rankRC,
	"cr":        rankRC,
	"snapshot":  rankSnapshot,
	"":          rankRelease,
	"ga":        rankRelease,
	"final":     rankRelease,
	"release":   rankRelease,
	"sp":        rankSP,
}

type item struct {
	numeric bool
	value   string
}

func (i item) rank() int {
	if r, ok := qualifierRanks[i.value]; ok {
		return r
	}
	return rankUnknown
}

// isNull reports whether the item compares equal to a missing item.
func (i item) isNull() bool {
	if i.numeric {
		return strings.TrimLeft(i.value, "0") == ""
	}
	return i.rank() == rankRelease
}

func tokenize(v string) []item {
	v = strings.ToLower(strings.TrimSpace(v))

	var items []item
	var cur strings.Builder
	curNumeric := false

	flush := func() {
		if cur.Len() > 0 {
			items = append(items, item{numeric: curNumeric, value: cur.String()})
			cur.Reset()
		}
	}

	for _, r := range v {
		switch {
		case r == '.' || r == '-' || r == '_':
			flush()
		case unicode.IsDigit(r):
			if cur.Len() > 0 && !curNumeric {
				flush()
			}
			curNumeric = true
			cur.WriteRune(r)
		default:
			if cur.Len() > 0 && curNumeric {
				flush()
			}
			curNumeric = false
			cur.WriteRune(r)
		}
	}
	flush()

	for len(items) > 0 && items[len(items)-1].isNull() {
		items = items[:len(items)-1]
	}
	return items
}

func compareItems(a, b item) int {
	switch {
	case a.numeric && b.numeric:
		return compareNumeric(a.value, b.value)
	case a.numeric:
		return 1
	case b.numeric:
		return -1
	}

	ra, rb := a.rank(), b.rank()
	switch {
	case ra != rb:
		return sign(ra - rb)
	case ra == rankUnknown:
		return strings.Compare(a.value, b.value)
	}
	return 0
}

// compareToNull compares an item against a missing one.
func compareToNull(a item) int {
	if a.numeric {
		if a.isNull() {
			return 0
		}
		return 1
	}
	return sign(a.rank() - rankRelease)
}

func compareNumeric(a, b string) int {
	a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return sign(len(a) - len(b))
	}
	return strings.Compare(a, b)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// CompareVersions orders Maven versions: numeric segments numerically,
// qualifiers as alpha < beta < milestone < rc < snapshot < release < sp.
// Trailing zero and release segments are insignificant, so 1.0 equals
// 1.0.0.
func CompareVersions(a, b string) int {
	ia, ib := tokenize(a), tokenize(b)
	for i := 0; i < len(ia) || i < len(ib); i++ {
		var c int
		switch {
		case i >= len(ia):
			c = -compareToNull(ib[i])
		case i >= len(ib):
			c = compareToNull(ia[i])
		default:
			c = compareItems(ia[i], ib[i])
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// SortVersions sorts versions ascending. Versions that compare equal keep
// lexical order so the result is deterministic.
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		if c := CompareVersions(versions[i], versions[j]); c != 0 {
			return c < 0
		}
		return versions[i] < versions[j]
	})
}

// IsPreRelease reports whether v is a snapshot or carries an alpha, beta,
// milestone, rc or cr qualifier.
func IsPreRelease(v string) bool {
	if store.IsSnapshotVersion(v) {
		return true
	}
	for _, it := range tokenize(v) {
		if it.numeric {
			continue
		}
		switch it.rank() {
		case rankAlpha, rankBeta, rankMilestone, rankRC, rankSnapshot:
			return true
		}
	}
	return false
}
