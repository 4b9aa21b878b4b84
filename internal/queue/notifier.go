package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"uploadgate/internal/upload"
)

// UploadCompletedEvent is the message published for downstream consumers
// (file catalog, transcoders) once an upload is finalized.
type UploadCompletedEvent struct {
	UploadID      string    `json:"upload_id"`
	OwnerID       string    `json:"owner_id"`
	Bucket        string    `json:"bucket"`
	ObjectKey     string    `json:"object_key"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Notifier publishes completion events to SQS.
type Notifier struct {
	client   *sqs.Client
	queueURL string
}

func NewNotifier(client *sqs.Client, queueURL string) *Notifier {
	return &Notifier{
		client:   client,
		queueURL: queueURL,
	}
}

func (n *Notifier) UploadCompleted(ctx context.Context, session *upload.Session) error {
	completedAt := time.Now().UTC()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	body, err := json.Marshal(UploadCompletedEvent{
		UploadID:      session.ID,
		OwnerID:       session.OwnerID,
		Bucket:        session.Bucket,
		ObjectKey:     session.ObjectKey,
		FileName:      session.FileName,
		ContentType:   session.ContentType,
		FileSizeBytes: session.FileSizeBytes,
		CompletedAt:   completedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
	})
	return err
}
