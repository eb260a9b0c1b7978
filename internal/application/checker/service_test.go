package checker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/token-check-api/internal/audit"
	"github.com/token-check-api/internal/domain"
)

const wellFormedToken = "mfa.abcdefghijklmnopqrstuvwxyz.0123456789abcdefghij" // 51 chars

// --- test doubles ---

// fakeVerifier scripts outcomes per token and records call order.
type fakeVerifier struct {
	calls   []string
	validFn func(token string) bool
}

func (f *fakeVerifier) Check(_ context.Context, token string) domain.TokenResult {
	f.calls = append(f.calls, token)
	if f.validFn != nil && f.validFn(token) {
		return domain.TokenResult{
			Token: token,
			Valid: true,
			User:  &domain.Profile{ID: fmt.Sprintf("user-%d", len(f.calls)), Username: "u", Discriminator: "0"},
		}
	}
	return domain.TokenResult{Token: token, Valid: false, Error: "Invalid token. The token you provided is invalid or has expired."}
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Save(ctx context.Context, res domain.TokenResult) (*domain.SavedToken, error) {
	args := m.Called(ctx, res)
	if rec, _ := args.Get(0).(*domain.SavedToken); rec != nil {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) GetAll(ctx context.Context) ([]domain.SavedToken, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SavedToken), args.Error(1)
}
func (m *mockStore) GetByUserID(ctx context.Context, userID string) ([]domain.SavedToken, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.SavedToken), args.Error(1)
}

type mockArchive struct{ mock.Mock }

func (m *mockArchive) Store(ctx context.Context, batchID string, report []byte) (string, error) {
	args := m.Called(ctx, batchID, report)
	return args.String(0), args.Error(1)
}

// recorderSpy captures audit events in order.
type recorderSpy struct{ events []audit.Event }

func (r *recorderSpy) Record(_ context.Context, e audit.Event) {
	r.events = append(r.events, e)
}

func (r *recorderSpy) byKind(k audit.Kind) []audit.Event {
	var out []audit.Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// --- CheckOne ---

func TestCheckOne_FormatValidationSkipsNetwork(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"too short", "abc"},
		{"49 chars with period", strings.Repeat("a", 24) + "." + strings.Repeat("b", 24)},
		{"long but no period", strings.Repeat("a", 60)},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &fakeVerifier{}
			store := &mockStore{}
			svc := NewService(ServiceDeps{Verifier: verifier, Store: store})

			_, err := svc.CheckOne(context.Background(), tt.token)

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrBadRequest)
			assert.Empty(t, verifier.calls, "no upstream call on a format failure")
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckOne_ValidIsPersisted(t *testing.T) {
	verifier := &fakeVerifier{validFn: func(string) bool { return true }}
	store := &mockStore{}
	store.On("Save", mock.Anything, mock.MatchedBy(func(res domain.TokenResult) bool {
		return res.Valid && res.Token == wellFormedToken
	})).Return(&domain.SavedToken{Token: wellFormedToken, UserID: "user-1", Valid: true}, nil)

	rec := &recorderSpy{}
	svc := NewService(ServiceDeps{Verifier: verifier, Store: store, Audit: rec})

	res, err := svc.CheckOne(context.Background(), wellFormedToken)

	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.NotNil(t, res.User)
	store.AssertExpectations(t)

	checks := rec.byKind(audit.KindTokenCheck)
	require.Len(t, checks, 1)
	assert.NotContains(t, checks[0].Message, wellFormedToken, "audit carries a fingerprint, not the token")
}

func TestCheckOne_RejectedTokenNotPersisted(t *testing.T) {
	verifier := &fakeVerifier{} // everything invalid
	store := &mockStore{}
	svc := NewService(ServiceDeps{Verifier: verifier, Store: store})

	res, err := svc.CheckOne(context.Background(), wellFormedToken)

	require.NoError(t, err, "an upstream rejection is a result, not an error")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "invalid or has expired")
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCheckOne_StoreFaultDoesNotDowngradeResult(t *testing.T) {
	verifier := &fakeVerifier{validFn: func(string) bool { return true }}
	store := &mockStore{}
	store.On("Save", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("table offline"))

	rec := &recorderSpy{}
	svc := NewService(ServiceDeps{Verifier: verifier, Store: store, Audit: rec})

	res, err := svc.CheckOne(context.Background(), wellFormedToken)

	require.NoError(t, err)
	assert.True(t, res.Valid, "verification correctness is decoupled from persistence")
	require.Len(t, rec.byKind(audit.KindError), 1)
}

// --- CheckMany ---

func TestCheckMany_EmptyInput(t *testing.T) {
	svc := NewService(ServiceDeps{Verifier: &fakeVerifier{}, Store: &mockStore{}})

	for _, raw := range []string{"", "\n\n", "   \n\t\n  "} {
		_, err := svc.CheckMany(context.Background(), raw)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	}
}

func TestCheckMany_OrderAndCounts(t *testing.T) {
	verifier := &fakeVerifier{validFn: func(tok string) bool { return strings.HasSuffix(tok, "-ok") }}
	store := &mockStore{}
	var savedOrder []string
	store.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		savedOrder = append(savedOrder, args.Get(1).(domain.TokenResult).Token)
	}).Return(&domain.SavedToken{Valid: true}, nil)

	svc := NewService(ServiceDeps{
		Verifier:   verifier,
		Store:      store,
		CheckDelay: time.Millisecond,
	})

	raw := "tok1-ok\n  tok2-bad  \n\ntok3-ok\ntok4-bad\ntok5-ok\n"
	result, err := svc.CheckMany(context.Background(), raw)

	require.NoError(t, err)
	assert.False(t, result.Truncated)
	assert.Equal(t, domain.BatchCount{Total: 5, Valid: 3, Invalid: 2}, result.Count)
	assert.Equal(t, result.Count.Total, result.Count.Valid+result.Count.Invalid)

	want := []string{"tok1-ok", "tok2-bad", "tok3-ok", "tok4-bad", "tok5-ok"}
	got := make([]string, len(result.Results))
	for i, res := range result.Results {
		got[i] = res.Token
	}
	assert.Equal(t, want, got, "results keep input order")
	assert.Equal(t, want, verifier.calls, "verified strictly sequentially in input order")
	assert.Equal(t, []string{"tok1-ok", "tok3-ok", "tok5-ok"}, savedOrder, "valid outcomes persisted in outcome order")
}

func TestCheckMany_TruncationAndPacing(t *testing.T) {
	verifier := &fakeVerifier{validFn: func(string) bool { return true }}
	store := &mockStore{}
	store.On("Save", mock.Anything, mock.Anything).Return(&domain.SavedToken{Valid: true}, nil)

	delay := 5 * time.Millisecond
	svc := NewService(ServiceDeps{Verifier: verifier, Store: store, CheckDelay: delay})

	var sb strings.Builder
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&sb, "token-%03d\n", i)
	}

	start := time.Now()
	result, err := svc.CheckMany(context.Background(), sb.String())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Equal(t, 100, result.Count.Total)
	assert.Len(t, verifier.calls, 100, "the tail past the limit is never verified")
	assert.Equal(t, "token-000", verifier.calls[0])
	assert.Equal(t, "token-099", verifier.calls[99])
	assert.GreaterOrEqual(t, elapsed, 100*delay, "pacing honoured for every item")
}

func TestCheckMany_OneBadTokenNeverAbortsTheBatch(t *testing.T) {
	verifier := &fakeVerifier{validFn: func(tok string) bool { return tok != "tok-2" }}
	store := &mockStore{}
	store.On("Save", mock.Anything, mock.Anything).Return(&domain.SavedToken{Valid: true}, nil)

	svc := NewService(ServiceDeps{Verifier: verifier, Store: store, CheckDelay: time.Millisecond})

	result, err := svc.CheckMany(context.Background(), "tok-1\ntok-2\ntok-3")

	require.NoError(t, err)
	assert.Equal(t, domain.BatchCount{Total: 3, Valid: 2, Invalid: 1}, result.Count)
	assert.False(t, result.Results[1].Valid)
	assert.True(t, result.Results[2].Valid, "items after a failure still run")
}

func TestCheckMany_ArchivedReportIsSanitized(t *testing.T) {
	secret := "mfa.supersecretmiddlepartnobodyshouldsee.0123456789abcdef"
	verifier := &fakeVerifier{validFn: func(string) bool { return true }}
	store := &mockStore{}
	store.On("Save", mock.Anything, mock.Anything).Return(&domain.SavedToken{Valid: true}, nil)

	archive := &mockArchive{}
	var report []byte
	archive.On("Store", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		report = args.Get(2).([]byte)
	}).Return("s3://reports/x.json", nil)

	svc := NewService(ServiceDeps{Verifier: verifier, Store: store, Archive: archive, CheckDelay: time.Millisecond})

	_, err := svc.CheckMany(context.Background(), secret)

	require.NoError(t, err)
	archive.AssertExpectations(t)
	assert.NotContains(t, string(report), secret, "raw tokens never reach the archive")
	assert.Contains(t, string(report), "batch_id")
}

func TestCheckMany_CancelledBetweenItems(t *testing.T) {
	verifier := &fakeVerifier{}
	svc := NewService(ServiceDeps{Verifier: verifier, Store: &mockStore{}, CheckDelay: 50 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := svc.CheckMany(ctx, "tok-1\ntok-2\ntok-3")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, len(verifier.calls), 3, "run stops at the cancellation point")
}

// --- listing ---

func TestListSaved_SortedNewestFirst(t *testing.T) {
	store := &mockStore{}
	store.On("GetAll", mock.Anything).Return([]domain.SavedToken{
		{Token: "old", Timestamp: 100},
		{Token: "new", Timestamp: 300},
		{Token: "mid", Timestamp: 200},
	}, nil)

	svc := NewService(ServiceDeps{Verifier: &fakeVerifier{}, Store: store})

	recs, err := svc.ListSaved(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{recs[0].Token, recs[1].Token, recs[2].Token})
}

func TestListSavedByUser(t *testing.T) {
	store := &mockStore{}
	store.On("GetByUserID", mock.Anything, "123").Return([]domain.SavedToken{{Token: "tok", UserID: "123"}}, nil)

	svc := NewService(ServiceDeps{Verifier: &fakeVerifier{}, Store: store})

	recs, err := svc.ListSavedByUser(context.Background(), "123")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "123", recs[0].UserID)
}
