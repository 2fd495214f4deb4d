// Package firestore keeps the matching data in Cloud Firestore documents.
//
// Collections:
//
//	profiles/{userId}
//	preferences/{userId}
//	promptResponses/{promptKey}_{userId}  {promptKey, userId}
//	blocks/{blockerId}_{blockedId}        {blockerId, blockedId}
//	weeklyMatches/{userId}_{promptKey}    MatchRecord, ids escaped by recordID
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	profilesCollection    = "profiles"
	preferencesCollection = "preferences"
	responsesCollection   = "promptResponses"
	blocksCollection      = "blocks"
	matchesCollection     = "weeklyMatches"

	// Firestore caps "in" filters at 30 values.
	inFilterLimit = 30
	getAllLimit   = 300
)

type Repository struct {
	client *firestore.Client
	now    func() time.Time
}

var _ matching.Repository = (*Repository)(nil)

func NewRepository(client *firestore.Client) *Repository {
	return &Repository{client: client, now: time.Now}
}

type responseDoc struct {
	PromptKey string `firestore:"promptKey"`
	UserID    string `firestore:"userId"`
}

type blockDoc struct {
	BlockerID string `firestore:"blockerId"`
	BlockedID string `firestore:"blockedId"`
}

// idEscaper removes the separator from each part so distinct (owner, prompt) pairs never share a
// document id. Ids without '_', '%' or '/' are unchanged.
var idEscaper = strings.NewReplacer("%", "%25", "_", "%5F", "/", "%2F")

func recordID(owner, promptKey string) string {
	return idEscaper.Replace(owner) + "_" + idEscaper.Replace(promptKey)
}

func (r *Repository) recordRef(owner, promptKey string) *firestore.DocumentRef {
	return r.client.Collection(matchesCollection).Doc(recordID(owner, promptKey))
}

func (r *Repository) ListRespondents(ctx context.Context, promptKey string) ([]string, error) {
	iter := r.client.Collection(responsesCollection).Where("promptKey", "==", promptKey).Documents(ctx)
	defer iter.Stop()

	var ids []string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc responseDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding response %s: %w", snap.Ref.ID, err)
		}
		ids = append(ids, doc.UserID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repository) LoadProfilesAndPreferences(ctx context.Context, ids []string) (map[string]matching.UserData, error) {
	out := make(map[string]matching.UserData, len(ids))

	for _, batch := range chunk(ids, getAllLimit) {
		profiles, err := r.getAll(ctx, profilesCollection, batch)
		if err != nil {
			return nil, fmt.Errorf("loading profiles: %w", err)
		}
		prefs, err := r.getAll(ctx, preferencesCollection, batch)
		if err != nil {
			return nil, fmt.Errorf("loading preferences: %w", err)
		}

		for _, snap := range profiles {
			var p matching.Profile
			if err := snap.DataTo(&p); err != nil {
				return nil, fmt.Errorf("decoding profile %s: %w", snap.Ref.ID, err)
			}
			p.UserID = snap.Ref.ID
			data := out[p.UserID]
			data.Profile = &p
			out[p.UserID] = data
		}
		for _, snap := range prefs {
			var p matching.Preferences
			if err := snap.DataTo(&p); err != nil {
				return nil, fmt.Errorf("decoding preferences %s: %w", snap.Ref.ID, err)
			}
			p.UserID = snap.Ref.ID
			data := out[p.UserID]
			data.Preferences = &p
			out[p.UserID] = data
		}
	}
	return out, nil
}

// getAll fetches documents by id and drops the ones that do not exist.
func (r *Repository) getAll(ctx context.Context, collection string, ids []string) ([]*firestore.DocumentSnapshot, error) {
	col := r.client.Collection(collection)
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = col.Doc(id)
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}

	existing := snaps[:0]
	for _, snap := range snaps {
		if snap.Exists() {
			existing = append(existing, snap)
		}
	}
	return existing, nil
}

func (r *Repository) LoadHistory(ctx context.Context, ids []string, excludePromptKey string) (map[string]matching.KeySet, error) {
	out := make(map[string]matching.KeySet, len(ids))

	for _, batch := range chunk(ids, inFilterLimit) {
		err := r.each(ctx, r.client.Collection(matchesCollection).Where("userId", "in", batch), func(snap *firestore.DocumentSnapshot) error {
			var rec matching.MatchRecord
			if err := snap.DataTo(&rec); err != nil {
				return fmt.Errorf("decoding match record %s: %w", snap.Ref.ID, err)
			}
			if rec.PromptKey == excludePromptKey {
				return nil
			}
			set, ok := out[rec.UserID]
			if !ok {
				set = make(matching.KeySet)
				out[rec.UserID] = set
			}
			for _, partner := range rec.Matches {
				set.Add(partner)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) LoadBlocks(ctx context.Context, ids []string) (map[string]matching.KeySet, error) {
	wanted := matching.NewKeySet(ids...)
	out := make(map[string]matching.KeySet)
	add := func(owner, other string) {
		if !wanted.Has(owner) {
			return
		}
		set, ok := out[owner]
		if !ok {
			set = make(matching.KeySet)
			out[owner] = set
		}
		set.Add(other)
	}
	collect := func(snap *firestore.DocumentSnapshot) error {
		var doc blockDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decoding block %s: %w", snap.Ref.ID, err)
		}
		add(doc.BlockerID, doc.BlockedID)
		add(doc.BlockedID, doc.BlockerID)
		return nil
	}

	col := r.client.Collection(blocksCollection)
	for _, batch := range chunk(ids, inFilterLimit) {
		if err := r.each(ctx, col.Where("blockerId", "in", batch), collect); err != nil {
			return nil, err
		}
		if err := r.each(ctx, col.Where("blockedId", "in", batch), collect); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) each(ctx context.Context, q firestore.Query, fn func(*firestore.DocumentSnapshot) error) error {
	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}

// WriteMatchRecord runs in a transaction so overwrites keep createdAt and appends see the latest
// partner list.
func (r *Repository) WriteMatchRecord(ctx context.Context, owner, promptKey string, partners []string, mode matching.WriteMode) error {
	ref := r.recordRef(owner, promptKey)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := readRecord(tx, ref)
		if err != nil && !errors.Is(err, matching.ErrRecordNotFound) {
			return err
		}

		now := r.now().UTC()
		var record *matching.MatchRecord
		if mode == matching.WriteAppend && existing != nil {
			record = existing
		} else {
			record = matching.NewMatchRecord(owner, promptKey, nil)
			record.CreatedAt = now
			if existing != nil {
				record.CreatedAt = existing.CreatedAt
			}
		}
		record.Append(partners...)
		record.UpdatedAt = now
		return tx.Set(ref, record)
	})
}

func (r *Repository) GetMatchRecord(ctx context.Context, owner, promptKey string) (*matching.MatchRecord, error) {
	snap, err := r.recordRef(owner, promptKey).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, matching.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(snap)
}

func (r *Repository) ListMatchRecords(ctx context.Context, promptKey string) ([]*matching.MatchRecord, error) {
	var records []*matching.MatchRecord
	q := r.client.Collection(matchesCollection).Where("promptKey", "==", promptKey)
	err := r.each(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		rec, err := decodeRecord(snap)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })
	return records, nil
}

func (r *Repository) UpdateMatchRecord(ctx context.Context, owner, promptKey string, fn func(*matching.MatchRecord) error) (*matching.MatchRecord, error) {
	ref := r.recordRef(owner, promptKey)

	var updated *matching.MatchRecord
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		record, err := readRecord(tx, ref)
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
		record.UpdatedAt = r.now().UTC()
		if err := tx.Set(ref, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMatchRecord succeeds when the document does not exist.
func (r *Repository) DeleteMatchRecord(ctx context.Context, owner, promptKey string) error {
	_, err := r.recordRef(owner, promptKey).Delete(ctx)
	return err
}

func readRecord(tx *firestore.Transaction, ref *firestore.DocumentRef) (*matching.MatchRecord, error) {
	snap, err := tx.Get(ref)
	if status.Code(err) == codes.NotFound {
		return nil, matching.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(snap)
}

func decodeRecord(snap *firestore.DocumentSnapshot) (*matching.MatchRecord, error) {
	var rec matching.MatchRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("decoding match record %s: %w", snap.Ref.ID, err)
	}
	return &rec, nil
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
