package npm

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/blang/semver/v4"
	"github.com/jmgilman/go/generator"
)

const (
	fieldVersions = "versions"
	fieldDistTags = "dist-tags"
	fieldTime     = "time"
	tagLatest     = "latest"
	timeModified  = "modified"
)

// Merge combines package.json documents given in member order.
//
// Each version keeps the first member's manifest. dist-tags are unioned
// with the first member winning, except latest, which is recomputed as the
// highest version. Entries of the time map keep the newest timestamp.
// Other top-level fields come from the first document that has them.
// Documents that do not parse are skipped.
func Merge(inputs []generator.Input) (*generator.Result, error) {
	merged := make(map[string]json.RawMessage)
	versions := make(map[string]json.RawMessage)
	tags := make(map[string]string)
	times := make(map[string]string)

	var newest time.Time
	parsed := 0

	for _, in := range inputs {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(in.Data, &doc); err != nil || doc == nil {
			continue
		}

		var docVersions map[string]json.RawMessage
		var docTags, docTimes map[string]string
		if !decodeField(doc, fieldVersions, &docVersions) ||
			!decodeField(doc, fieldDistTags, &docTags) ||
			!decodeField(doc, fieldTime, &docTimes) {
			continue
		}
		parsed++

		for k, v := range doc {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
		for v, manifest := range docVersions {
			if _, ok := versions[v]; !ok {
				versions[v] = manifest
			}
		}
		for tag, v := range docTags {
			if _, ok := tags[tag]; !ok {
				tags[tag] = v
			}
		}
		for k, ts := range docTimes {
			if cur, ok := times[k]; !ok || laterTimestamp(ts, cur) {
				times[k] = ts
			}
		}

		if t, ok := parseTimestamp(docTimes[timeModified]); ok {
			if t.After(newest) {
				newest = t
			}
		} else if mod := in.ModTime.UTC().Truncate(time.Second); mod.After(newest) {
			newest = mod
		}
	}

	if parsed == 0 {
		return nil, nil
	}

	if latest := Latest(keys(versions)); latest != "" {
		tags[tagLatest] = latest
	}

	if err := setField(merged, fieldVersions, versions); err != nil {
		return nil, err
	}
	if err := setField(merged, fieldDistTags, tags); err != nil {
		return nil, err
	}
	if err := setField(merged, fieldTime, times); err != nil {
		return nil, err
	}

	data, err := marshal(merged)
	if err != nil {
		return nil, err
	}
	return &generator.Result{Data: data, LastModified: newest}, nil
}

// Latest returns the highest release version, or the highest pre-release
// when there is no release. Strings that are not semver are ignored.
func Latest(versions []string) string {
	var best, bestPre *semver.Version
	var bestRaw, bestPreRaw string
	for _, raw := range versions {
		v, err := semver.ParseTolerant(raw)
		if err != nil {
			continue
		}
		if len(v.Pre) > 0 {
			if bestPre == nil || v.GT(*bestPre) {
				bestPre, bestPreRaw = &v, raw
			}
			continue
		}
		if best == nil || v.GT(*best) {
			best, bestRaw = &v, raw
		}
	}
	if best != nil {
		return bestRaw
	}
	return bestPreRaw
}

// decodeField decodes doc[name] into out. A missing or null field is fine;
// a field of the wrong shape is not.
func decodeField(doc map[string]json.RawMessage, name string, out interface{}) bool {
	raw, ok := doc[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return true
	}
	return json.Unmarshal(raw, out) == nil
}

func setField(doc map[string]json.RawMessage, name string, v interface{}) error {
	if rv, ok := v.(map[string]json.RawMessage); ok && len(rv) == 0 {
		delete(doc, name)
		return nil
	}
	if rv, ok := v.(map[string]string); ok && len(rv) == 0 {
		delete(doc, name)
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	doc[name] = data
	return nil
}

// marshal renders doc with sorted keys and two-space indentation.
func marshal(doc map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// laterTimestamp reports whether a is after b. Unparseable values lose to
// parseable ones and compare lexically among themselves.
func laterTimestamp(a, b string) bool {
	ta, okA := parseTimestamp(a)
	tb, okB := parseTimestamp(b)
	switch {
	case okA && okB:
		return ta.After(tb)
	case okA != okB:
		return okA
	}
	return a > b
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
