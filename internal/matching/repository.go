// internal/matching/repository.go

package matching

import (
	"context"
)

// RespondentSource lists the users who answered a prompt.
type RespondentSource interface {
	ListRespondents(ctx context.Context, promptKey string) ([]string, error)
}

// ProfileSource loads profiles and preferences in one batch. Users without records map to a
// UserData with nil fields, or are absent from the map; neither is an error.
type ProfileSource interface {
	LoadProfilesAndPreferences(ctx context.Context, ids []string) (map[string]UserData, error)
}

// HistorySource loads every partner each user received in any prompt other than excludePromptKey.
type HistorySource interface {
	LoadHistory(ctx context.Context, ids []string, excludePromptKey string) (map[string]KeySet, error)
}

// BlockSource loads block relations, expanded in both directions.
type BlockSource interface {
	LoadBlocks(ctx context.Context, ids []string) (map[string]KeySet, error)
}

// RecordStore persists weekly match records.
type RecordStore interface {
	// WriteMatchRecord writes the whole record for (owner, promptKey) in one operation.
	WriteMatchRecord(ctx context.Context, owner, promptKey string, partners []string, mode WriteMode) error
	GetMatchRecord(ctx context.Context, owner, promptKey string) (*MatchRecord, error)
	ListMatchRecords(ctx context.Context, promptKey string) ([]*MatchRecord, error)
	// UpdateMatchRecord applies fn to the stored record inside a transaction scoped to that record
	// and saves the result. fn's error aborts the update. Missing records yield ErrRecordNotFound.
	UpdateMatchRecord(ctx context.Context, owner, promptKey string, fn func(*MatchRecord) error) (*MatchRecord, error)
	// DeleteMatchRecord removes the record for (owner, promptKey). A missing record is not an error.
	DeleteMatchRecord(ctx context.Context, owner, promptKey string) error
}

// Repository is everything the engine reads and writes.
type Repository interface {
	RespondentSource
	ProfileSource
	HistorySource
	BlockSource
	RecordStore
}

// Locker serialises generation runs for one prompt.
type Locker interface {
	// Acquire returns a release func, or ErrRunInProgress when the prompt is already locked.
	Acquire(ctx context.Context, promptKey string) (func(context.Context) error, error)
}
