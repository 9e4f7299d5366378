package core

import "context"

// ObjectClient reads documents from S3 or any object storage.
// Documents are only ever read; nothing is written back.
type ObjectClient interface {
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
