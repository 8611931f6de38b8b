package maven

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.1", -1},
		{"1.1", "1.10", -1},
		{"1.9", "1.10", -1},
		{"1.0", "1.0.0", 0},
		{"1.0", "1.0-ga", 0},
		{"1.0-alpha-1", "1.0-beta", -1},
		{"1.0-beta", "1.0-rc1", -1},
		{"1.0-rc1", "1.0-rc2", -1},
		{"1.0-rc1", "1.0-SNAPSHOT", -1},
		{"1.0-SNAPSHOT", "1.0", -1},
		{"1.0", "1.0-sp1", -1},
		{"1.0-sp1", "1.0.1", -1},
		{"2.0", "1.99.99", 1},
		{"1.0-M1", "1.0-RC1", -1},
		{"1.0-CR1", "1.0-RC1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
			assert.Equal(t, -tt.want, CompareVersions(tt.b, tt.a))
		})
	}
}

func TestSortVersions(t *testing.T) {
	versions := []string{"1.10", "1.0-SNAPSHOT", "1.2", "1.0", "1.0-beta-2", "1.0-alpha"}
	SortVersions(versions)
	assert.Equal(t, []string{"1.0-alpha", "1.0-beta-2", "1.0-SNAPSHOT", "1.0", "1.2", "1.10"}, versions)
}

func TestIsPreRelease(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"1.0", false},
		{"1.0.1-sp1", false},
		{"1.0-SNAPSHOT", true},
		{"1.0-20240101.120000-3", true},
		{"1.0-alpha", true},
		{"1.0-beta-2", true},
		{"1.0-M3", true},
		{"1.0-rc1", true},
		{"1.0-CR2", true},
		{"1.0-final", false},
		{"1.0-jre", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPreRelease(tt.version))
		})
	}
}
