package upload

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// fallbackFileName is used when sanitizing strips the client name to nothing.
const fallbackFileName = "file"

var (
	unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	separatorRuns  = regexp.MustCompile(`_+`)
)

// ObjectKey builds a collision-resistant storage key scoped under the
// owner's namespace. The client file name is reduced to a safe character
// set so no unsanitized input ever reaches the key; a fresh UUID segment
// makes every call unique.
func ObjectKey(ownerID, fileName string) string {
	safe := unsafeKeyChars.ReplaceAllString(fileName, "_")
	safe = separatorRuns.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = fallbackFileName
	}
	return "users/" + ownerID + "/uploads/" + uuid.NewString() + "/" + safe
}
