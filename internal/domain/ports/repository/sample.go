package repository

import "context"

// SampleRepository is the port for a chat's corpus. Implementations serialize
// writers per chat and never fail reads: missing or unreadable data is an empty corpus.
type SampleRepository interface {
	Ensure(ctx context.Context, chatID int64) error
	Load(ctx context.Context, chatID int64) []string
	Append(ctx context.Context, chatID int64, text string) error
	Clear(ctx context.Context, chatID int64) error
	// Size returns the stored corpus size in bytes.
	Size(ctx context.Context, chatID int64) int64
}
