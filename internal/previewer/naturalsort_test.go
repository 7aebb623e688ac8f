package previewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"3.9.0", "3.10.1", -1},
		{"3.10.1", "3.9.0", 1},
		{"3.38.0", "3.38.0", 0},
		{"3.38.0", "3.38.1", -1},
		{"3.7.1", "3.7.0", 1},
		{"3.88.0", "3.9.0", 1},
		{"3.52.1", "3.52.0", 1},
		{"unknown", "3.38.0", 1}, // "u" sorts after digits
		{"3.38", "3.38.0", -1},
	}
	for _, tc := range cases {
		got := CompareVersions(tc.a, tc.b)
		switch tc.want {
		case 0:
			assert.Zero(t, got, "%s vs %s", tc.a, tc.b)
		case -1:
			assert.Negative(t, got, "%s vs %s", tc.a, tc.b)
		case 1:
			assert.Positive(t, got, "%s vs %s", tc.a, tc.b)
		}
	}
}

func TestLatestKnownVersion(t *testing.T) {
	latest := latestKnownVersion()
	assert.NotEmpty(t, latest)
	for _, v := range programVersions {
		assert.LessOrEqual(t, CompareVersions(v, latest), 0, "version %s newer than reported latest %s", v, latest)
	}
}
