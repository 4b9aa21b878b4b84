package upload

import "testing"

func TestPlanParts(t *testing.T) {
	const mib = 1024 * 1024

	tests := []struct {
		name         string
		fileSize     int64
		partSize     int64
		maxPartCount int
		wantSize     int64
		wantCount    int
		wantErr      bool
	}{
		{
			name:         "exact multiple",
			fileSize:     32 * mib,
			partSize:     16 * mib,
			maxPartCount: 10000,
			wantSize:     16 * mib,
			wantCount:    2,
		},
		{
			name:         "ceil rounds up",
			fileSize:     100 * mib,
			partSize:     16 * mib,
			maxPartCount: 10000,
			wantSize:     16 * mib,
			wantCount:    7,
		},
		{
			name:         "small file is one part",
			fileSize:     1,
			partSize:     16 * mib,
			maxPartCount: 10000,
			wantSize:     16 * mib,
			wantCount:    1,
		},
		{
			name:         "configured size below minimum is raised",
			fileSize:     10 * mib,
			partSize:     1 * mib,
			maxPartCount: 10000,
			wantSize:     MinPartSizeBytes,
			wantCount:    2,
		},
		{
			name:         "zero file size rejected",
			fileSize:     0,
			partSize:     16 * mib,
			maxPartCount: 10000,
			wantErr:      true,
		},
		{
			name:         "too many parts rejected",
			fileSize:     100 * mib,
			partSize:     16 * mib,
			maxPartCount: 5,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanParts(tt.fileSize, tt.partSize, tt.maxPartCount)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("PlanParts(%d, %d, %d) expected error, got %+v", tt.fileSize, tt.partSize, tt.maxPartCount, plan)
				}
				if KindOf(err) != KindValidation {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PlanParts returned error: %v", err)
			}
			if plan.PartSizeBytes != tt.wantSize {
				t.Errorf("PartSizeBytes = %d, expected %d", plan.PartSizeBytes, tt.wantSize)
			}
			if plan.PartCount != tt.wantCount {
				t.Errorf("PartCount = %d, expected %d", plan.PartCount, tt.wantCount)
			}
		})
	}
}
