// internal/matching/service.go

package matching

import (
	"context"
	"errors"
	"fmt"
)

type Service interface {
	// Generation
	Generate(ctx context.Context, promptKey string, opts GenerateOptions) (*Report, error)
	Validate(ctx context.Context, promptKey string) (*ValidationResult, error)

	// Records
	GetMatchRecord(ctx context.Context, owner, promptKey string) (*MatchRecord, error)
	RevealMatch(ctx context.Context, owner, promptKey string, index int) (*MatchRecord, error)

	// Admin
	AddManualMatch(ctx context.Context, promptKey, userA, userB string) error
	GetPromptStats(ctx context.Context, promptKey string) (*PromptStats, error)
}

type service struct {
	repo      Repository
	generator *Generator
	validator *MutualityValidator
}

func NewService(repo Repository, generator *Generator) Service {
	if generator == nil {
		generator = NewGenerator(repo)
	}
	return &service{
		repo:      repo,
		generator: generator,
		validator: NewMutualityValidator(repo),
	}
}

func (s *service) Generate(ctx context.Context, promptKey string, opts GenerateOptions) (*Report, error) {
	return s.generator.Run(ctx, promptKey, opts)
}

func (s *service) Validate(ctx context.Context, promptKey string) (*ValidationResult, error) {
	return s.validator.Validate(ctx, promptKey)
}

func (s *service) GetMatchRecord(ctx context.Context, owner, promptKey string) (*MatchRecord, error) {
	if owner == "" {
		return nil, ErrInvalidUserID
	}
	if promptKey == "" {
		return nil, ErrInvalidPrompt
	}
	return s.repo.GetMatchRecord(ctx, owner, promptKey)
}

// RevealMatch marks the partner at index as revealed. The check and the flip happen inside the
// store's per-record transaction, so concurrent reveals for the same owner never lose a flag.
func (s *service) RevealMatch(ctx context.Context, owner, promptKey string, index int) (*MatchRecord, error) {
	if owner == "" {
		return nil, ErrInvalidUserID
	}
	if promptKey == "" {
		return nil, ErrInvalidPrompt
	}

	record, err := s.repo.UpdateMatchRecord(ctx, owner, promptKey, func(r *MatchRecord) error {
		if index < 0 || index >= len(r.Matches) {
			return &IndexOutOfRangeError{Index: index, Len: len(r.Matches)}
		}
		if len(r.Revealed) != len(r.Matches) {
			revealed := make([]bool, len(r.Matches))
			copy(revealed, r.Revealed)
			r.Revealed = revealed
		}
		r.Revealed[index] = true
		return nil
	})

	switch {
	case err == nil:
		RecordReveal("ok")
	case errors.Is(err, ErrRecordNotFound):
		RecordReveal("not_found")
	case errors.Is(err, ErrIndexOutOfRange):
		RecordReveal("out_of_range")
	default:
		RecordReveal("error")
	}
	return record, err
}

// AddManualMatch pairs two users for a prompt outside of generation, appending each to the other's
// record. Both records must have room and the users must not block each other.
func (s *service) AddManualMatch(ctx context.Context, promptKey, userA, userB string) error {
	if promptKey == "" {
		return ErrInvalidPrompt
	}
	if userA == "" || userB == "" {
		return ErrInvalidUserID
	}
	if userA == userB {
		return ErrSelfMatch
	}

	blocks, err := s.repo.LoadBlocks(ctx, []string{userA, userB})
	if err != nil {
		return fmt.Errorf("loading blocks: %w", err)
	}
	if blocks[userA].Has(userB) || blocks[userB].Has(userA) {
		return ErrBlocked
	}

	recA, err := s.recordOrEmpty(ctx, userA, promptKey)
	if err != nil {
		return err
	}
	recB, err := s.recordOrEmpty(ctx, userB, promptKey)
	if err != nil {
		return err
	}

	if recA.Contains(userB) && recB.Contains(userA) {
		return ErrAlreadyMatched
	}
	if (!recA.Contains(userB) && len(recA.Matches) >= MaxMatches) ||
		(!recB.Contains(userA) && len(recB.Matches) >= MaxMatches) {
		return ErrCapacityReached
	}

	if err := s.repo.WriteMatchRecord(ctx, userA, promptKey, []string{userB}, WriteAppend); err != nil {
		return &UserError{UserID: userA, Err: err}
	}
	if err := s.repo.WriteMatchRecord(ctx, userB, promptKey, []string{userA}, WriteAppend); err != nil {
		return &UserError{UserID: userB, Err: err}
	}
	return nil
}

func (s *service) recordOrEmpty(ctx context.Context, owner, promptKey string) (*MatchRecord, error) {
	record, err := s.repo.GetMatchRecord(ctx, owner, promptKey)
	if errors.Is(err, ErrRecordNotFound) {
		return NewMatchRecord(owner, promptKey, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading record for %s: %w", owner, err)
	}
	return record, nil
}
