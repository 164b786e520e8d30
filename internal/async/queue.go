package async

import (
	"context"
	"time"
)

// Job is one document waiting to be classified.
type Job struct {
	Path        string
	SourceName  string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
