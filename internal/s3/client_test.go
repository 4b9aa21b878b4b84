package s3

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplySSE(t *testing.T) {
	tests := []struct {
		name          string
		algorithm     string
		kmsKeyID      string
		wantSSE       s3Types.ServerSideEncryption
		wantKMSKeyID  string
		wantKeyOnCall bool
	}{
		{name: "disabled", algorithm: "", kmsKeyID: "ignored"},
		{name: "aes256", algorithm: "AES256", wantSSE: s3Types.ServerSideEncryptionAes256},
		{
			name:          "kms with key",
			algorithm:     "aws:kms",
			kmsKeyID:      "key-123",
			wantSSE:       s3Types.ServerSideEncryptionAwsKms,
			wantKMSKeyID:  "key-123",
			wantKeyOnCall: true,
		},
		{name: "kms without key", algorithm: "aws:kms", wantSSE: s3Types.ServerSideEncryptionAwsKms},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				sseAlgorithm: s3Types.ServerSideEncryption(tt.algorithm),
				sseKMSKeyID:  tt.kmsKeyID,
			}

			input := &s3.CreateMultipartUploadInput{}
			client.applySSE(input)

			assert.Equal(t, tt.wantSSE, input.ServerSideEncryption)
			if tt.wantKeyOnCall {
				require.NotNil(t, input.SSEKMSKeyId)
				assert.Equal(t, tt.wantKMSKeyID, *input.SSEKMSKeyId)
			} else {
				assert.Nil(t, input.SSEKMSKeyId)
			}
		})
	}
}
