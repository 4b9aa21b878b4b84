package upload

import (
	"sort"
	"strings"
)

// ValidateParts checks the client-reported part manifest against the
// session's planned part count and returns it sorted ascending by part
// number with normalized ETags. Completion is strict: the manifest must
// cover exactly the parts 1..partCount, with no duplicates, gaps or blank
// ETags.
func ValidateParts(partCount int, parts []CompletedPart) ([]CompletedPart, error) {
	if len(parts) == 0 {
		return nil, newError(KindValidation, "parts list is required")
	}

	seen := make(map[int]struct{}, len(parts))
	out := make([]CompletedPart, 0, len(parts))
	for _, p := range parts {
		if p.PartNumber < 1 || p.PartNumber > partCount {
			return nil, newError(KindValidation, "invalid part number: %d", p.PartNumber)
		}
		if _, dup := seen[p.PartNumber]; dup {
			return nil, newError(KindValidation, "duplicate part number: %d", p.PartNumber)
		}
		seen[p.PartNumber] = struct{}{}
		if strings.TrimSpace(p.ETag) == "" {
			return nil, newError(KindValidation, "missing etag for part number: %d", p.PartNumber)
		}
		out = append(out, CompletedPart{PartNumber: p.PartNumber, ETag: normalizeETag(p.ETag)})
	}

	if len(seen) != partCount {
		return nil, newError(KindValidation, "expected %d parts, got %d", partCount, len(seen))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PartNumber < out[j].PartNumber })
	return out, nil
}

// normalizeETag trims whitespace and the surrounding quotes some clients
// and servers keep on ETag values.
func normalizeETag(etag string) string {
	e := strings.TrimSpace(etag)
	if len(e) >= 2 && strings.HasPrefix(e, `"`) && strings.HasSuffix(e, `"`) {
		e = e[1 : len(e)-1]
	}
	return e
}
