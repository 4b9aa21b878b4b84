package upload

import "testing"

func TestAllowedContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		patterns    []string
		expected    bool
	}{
		{
			name:        "wildcard subtype matches",
			contentType: "video/mp4",
			patterns:    []string{"video/*"},
			expected:    true,
		},
		{
			name:        "wildcard subtype rejects other type",
			contentType: "application/json",
			patterns:    []string{"video/*"},
			expected:    false,
		},
		{
			name:        "exact match",
			contentType: "application/octet-stream",
			patterns:    []string{"application/octet-stream"},
			expected:    true,
		},
		{
			name:        "match everything",
			contentType: "text/plain",
			patterns:    []string{"*/*"},
			expected:    true,
		},
		{
			name:        "case insensitive",
			contentType: "VIDEO/MP4",
			patterns:    []string{"video/*"},
			expected:    true,
		},
		{
			name:        "case insensitive pattern",
			contentType: "video/mp4",
			patterns:    []string{"VIDEO/*"},
			expected:    true,
		},
		{
			name:        "blank content type never matches",
			contentType: "   ",
			patterns:    []string{"*/*"},
			expected:    false,
		},
		{
			name:        "blank pattern never matches",
			contentType: "video/mp4",
			patterns:    []string{""},
			expected:    false,
		},
		{
			name:        "empty pattern list",
			contentType: "video/mp4",
			patterns:    nil,
			expected:    false,
		},
		{
			name:        "second pattern matches",
			contentType: "image/png",
			patterns:    []string{"video/*", "image/*"},
			expected:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AllowedContentType(tt.contentType, tt.patterns)
			if result != tt.expected {
				t.Errorf("AllowedContentType(%q, %v) = %t, expected %t", tt.contentType, tt.patterns, result, tt.expected)
			}
		})
	}
}
