package upload

import (
	"strings"
	"testing"
)

func TestObjectKey_Sanitization(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantLeaf string
	}{
		{"plain name kept", "movie.mp4", "movie.mp4"},
		{"spaces become separators", "my holiday video.mp4", "my_holiday_video.mp4"},
		{"unsafe runs collapse", "a//..\\b!!c.mp4", "a_.._b_c.mp4"},
		{"path traversal neutralized", "../../etc/passwd", ".._.._etc_passwd"},
		{"leading and trailing separators trimmed", "___file___", "file"},
		{"empty name falls back", "", "file"},
		{"only unsafe characters falls back", "!!!///", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ObjectKey("user-1", tt.fileName)
			if !strings.HasPrefix(key, "users/user-1/uploads/") {
				t.Fatalf("key %q not scoped under owner namespace", key)
			}
			leaf := key[strings.LastIndex(key, "/")+1:]
			if leaf != tt.wantLeaf {
				t.Errorf("ObjectKey(%q) leaf = %q, expected %q", tt.fileName, leaf, tt.wantLeaf)
			}
		})
	}
}

func TestObjectKey_UniquePerCall(t *testing.T) {
	a := ObjectKey("user-1", "movie.mp4")
	b := ObjectKey("user-1", "movie.mp4")
	if a == b {
		t.Errorf("expected distinct keys per call, got %q twice", a)
	}
}
