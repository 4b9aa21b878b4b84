package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         string
	APIKey       string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	SSEAlgorithm string
	SSEKMSKeyID  string
	AWSAccessKey string
	AWSSecretKey string
	SessionTable string
	QueueURL     string
	RedisAddr    string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		APIKey:       getEnv("API_KEY", ""),
		S3Bucket:     getEnv("S3_BUCKET", ""),
		S3Region:     getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		SSEAlgorithm: getEnv("S3_SSE_ALGORITHM", ""),
		SSEKMSKeyID:  getEnv("S3_SSE_KMS_KEY_ID", ""),
		AWSAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SessionTable: getEnv("SESSION_TABLE", "upload_sessions"),
		QueueURL:     getEnv("UPLOADS_QUEUE_URL", ""),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
	}
}

// UploadPolicy holds the upload constraints and cleanup knobs, loaded from
// a YAML file so limits can change without a rebuild.
type UploadPolicy struct {
	MaxFileSizeBytes       int64    `yaml:"max_file_size_bytes"`
	AllowedContentTypes    []string `yaml:"allowed_content_types"`
	PartSizeBytes          int64    `yaml:"part_size_bytes"`
	MaxPartCount           int      `yaml:"max_part_count"`
	PresignExpiryMinutes   int      `yaml:"presign_expiry_minutes"`
	ListLimit              int      `yaml:"list_limit"`
	CleanupEnabled         bool     `yaml:"cleanup_enabled"`
	CleanupIntervalMinutes int      `yaml:"cleanup_interval_minutes"`
	StaleAfterMinutes      int      `yaml:"stale_after_minutes"`
	CleanupBatchSize       int      `yaml:"cleanup_batch_size"`
}

func LoadUploadPolicy() (*UploadPolicy, error) {
	policyPath := getEnv("UPLOAD_POLICY_PATH", "")
	if policyPath == "" {
		return DefaultUploadPolicy(), nil
	}

	data, err := os.ReadFile(policyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload policy: %w", err)
	}

	policy := DefaultUploadPolicy()
	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to parse upload policy: %w", err)
	}

	return policy, nil
}

func DefaultUploadPolicy() *UploadPolicy {
	return &UploadPolicy{
		MaxFileSizeBytes:       3 * 1024 * 1024 * 1024,
		AllowedContentTypes:    []string{"video/*", "application/octet-stream"},
		PartSizeBytes:          16 * 1024 * 1024,
		MaxPartCount:           10000,
		PresignExpiryMinutes:   20,
		ListLimit:              50,
		CleanupEnabled:         true,
		CleanupIntervalMinutes: 10,
		StaleAfterMinutes:      1440,
		CleanupBatchSize:       200,
	}
}

func (p *UploadPolicy) PresignExpiry() time.Duration {
	return time.Duration(p.PresignExpiryMinutes) * time.Minute
}

func (p *UploadPolicy) CleanupInterval() time.Duration {
	return time.Duration(p.CleanupIntervalMinutes) * time.Minute
}

func (p *UploadPolicy) StaleAfter() time.Duration {
	return time.Duration(p.StaleAfterMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
