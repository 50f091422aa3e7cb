package storage

import "context"

// Store guards a single persisted document of type T.
type Store[T any] interface {
	// With loads the document under the store lock and passes it to fn
	// read-only. Changes made by fn are discarded.
	With(ctx context.Context, fn func(*T) error) error
	// Update loads the document under the store lock, passes it to fn, and
	// persists it when fn returns nil.
	Update(ctx context.Context, fn func(*T) error) error
}

// Initer is implemented by documents that need their maps allocated after
// loading (a missing file or a JSON null leaves them nil).
type Initer interface {
	Init()
}
