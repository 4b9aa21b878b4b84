package upload

// MinPartSizeBytes is the smallest part size the object store accepts for
// multipart uploads (the last part excepted during the actual transfer).
const MinPartSizeBytes = 5 * 1024 * 1024

// PartPlan is the computed multipart layout for a declared file size.
type PartPlan struct {
	PartSizeBytes int64
	PartCount     int
}

// PlanParts computes the part size and count for fileSize. The effective
// part size is the configured size raised to MinPartSizeBytes; the count is
// ceil(fileSize / partSize). Plans with a non-positive count or more than
// maxPartCount parts are rejected.
func PlanParts(fileSize, partSize int64, maxPartCount int) (PartPlan, error) {
	effective := partSize
	if effective < MinPartSizeBytes {
		effective = MinPartSizeBytes
	}

	count := int((fileSize + effective - 1) / effective)
	if count <= 0 {
		return PartPlan{}, newError(KindValidation, "invalid part count %d computed", count)
	}
	if count > maxPartCount {
		return PartPlan{}, newError(KindValidation, "too many parts (%d), increase part size", count)
	}

	return PartPlan{PartSizeBytes: effective, PartCount: count}, nil
}
