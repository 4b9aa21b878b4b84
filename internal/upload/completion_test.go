package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParts_Success(t *testing.T) {
	parts := []CompletedPart{
		{PartNumber: 3, ETag: `"etag-3"`},
		{PartNumber: 1, ETag: " etag-1 "},
		{PartNumber: 2, ETag: "etag-2"},
	}

	out, err := ValidateParts(3, parts)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// sorted ascending with normalized etags
	assert.Equal(t, []CompletedPart{
		{PartNumber: 1, ETag: "etag-1"},
		{PartNumber: 2, ETag: "etag-2"},
		{PartNumber: 3, ETag: "etag-3"},
	}, out)
}

func TestValidateParts_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		partCount int
		parts     []CompletedPart
	}{
		{
			name:      "empty list",
			partCount: 2,
			parts:     nil,
		},
		{
			name:      "part number below range",
			partCount: 2,
			parts:     []CompletedPart{{PartNumber: 0, ETag: "e"}, {PartNumber: 1, ETag: "e"}},
		},
		{
			name:      "part number above range",
			partCount: 2,
			parts:     []CompletedPart{{PartNumber: 1, ETag: "e"}, {PartNumber: 3, ETag: "e"}},
		},
		{
			name:      "duplicate part number",
			partCount: 2,
			parts:     []CompletedPart{{PartNumber: 1, ETag: "e"}, {PartNumber: 1, ETag: "e"}},
		},
		{
			name:      "blank etag",
			partCount: 2,
			parts:     []CompletedPart{{PartNumber: 1, ETag: "e"}, {PartNumber: 2, ETag: "   "}},
		},
		{
			name:      "partial completion",
			partCount: 3,
			parts:     []CompletedPart{{PartNumber: 1, ETag: "e"}, {PartNumber: 2, ETag: "e"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateParts(tt.partCount, tt.parts)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestNormalizeETag(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{`"abc"`, "abc"},
		{` "abc" `, "abc"},
		{"abc", "abc"},
		{`"`, `"`},
		{`""`, ""},
	}

	for _, tt := range tests {
		if got := normalizeETag(tt.in); got != tt.expected {
			t.Errorf("normalizeETag(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}
