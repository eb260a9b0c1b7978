// Package memstore is the default, process-lifetime record store. It is a
// constructed instance rather than a package singleton so tests get isolated
// stores.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/token-check-api/internal/domain"
)

// TokenRepo keeps verified-token records in memory: a primary map keyed by
// token and a secondary index grouping tokens by user ID. Both are only ever
// updated together under the same lock.
type TokenRepo struct {
	mu      sync.RWMutex
	byToken map[string]domain.SavedToken
	byUser  map[string]map[string]struct{} // userID -> set of tokens
}

func NewTokenRepo() *TokenRepo {
	return &TokenRepo{
		byToken: make(map[string]domain.SavedToken),
		byUser:  make(map[string]map[string]struct{}),
	}
}

// Save upserts the record for a successfully verified token. A re-check of
// the same token overwrites the record with a fresh timestamp. Calling Save
// with an invalid result is a caller bug and is rejected.
func (r *TokenRepo) Save(_ context.Context, res domain.TokenResult) (*domain.SavedToken, error) {
	if !res.Valid || res.User == nil {
		return nil, fmt.Errorf("save requires a valid result with a profile: %w", domain.ErrBadRequest)
	}

	rec := domain.SavedToken{
		Token:     res.Token,
		UserID:    res.User.ID,
		Username:  res.User.Username,
		Timestamp: time.Now().UnixMilli(),
		Valid:     true,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A token that moved to another account must leave the old index entry.
	if old, ok := r.byToken[rec.Token]; ok && old.UserID != rec.UserID {
		r.dropIndexEntry(old.UserID, rec.Token)
	}
	r.byToken[rec.Token] = rec
	set, ok := r.byUser[rec.UserID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[rec.UserID] = set
	}
	set[rec.Token] = struct{}{}

	return &rec, nil
}

// GetAll returns every saved record. Order is unspecified.
func (r *TokenRepo) GetAll(_ context.Context) ([]domain.SavedToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SavedToken, 0, len(r.byToken))
	for _, rec := range r.byToken {
		out = append(out, rec)
	}
	return out, nil
}

// GetByUserID returns the records for one account via the secondary index.
func (r *TokenRepo) GetByUserID(_ context.Context, userID string) ([]domain.SavedToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens := r.byUser[userID]
	out := make([]domain.SavedToken, 0, len(tokens))
	for tok := range tokens {
		out = append(out, r.byToken[tok])
	}
	return out, nil
}

func (r *TokenRepo) dropIndexEntry(userID, token string) {
	if set, ok := r.byUser[userID]; ok {
		delete(set, token)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}
