package repository

import (
	"context"
	"io"

	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
)

// StorageRepository defines the object-storage capabilities the ingestion
// pipeline depends on: listing export files and opening fetch sessions.
type StorageRepository interface {
	// ListObjects enumerates billing export files under prefix. A listing
	// failure is fatal to the pipeline run.
	ListObjects(ctx context.Context, bucket, prefix string) ([]entity.ObjectRef, error)

	// NewFetcher opens an independent fetch session. Sessions are not assumed
	// safe for concurrent use; each fetch worker owns exactly one.
	NewFetcher(ctx context.Context) (ObjectFetcher, error)

	// AccountID resolves the caller's AWS account, used for credential
	// validation at startup and report headers.
	AccountID(ctx context.Context) (string, error)
}

// ObjectFetcher downloads a single object's content.
type ObjectFetcher interface {
	Fetch(ctx context.Context, ref entity.ObjectRef) (io.ReadCloser, error)
}
