package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

type appended struct {
	key   string
	kind  domain.LedgerKind
	entry domain.LedgerEntry
}

type fakeRepo struct {
	appended []appended
	appendFn func(ctx context.Context, key string, kind domain.LedgerKind, entry domain.LedgerEntry) error
	getFn    func(ctx context.Context, key string) (domain.LedgerMonth, error)
}

func (f *fakeRepo) Append(ctx context.Context, key string, kind domain.LedgerKind, entry domain.LedgerEntry) error {
	if f.appendFn != nil {
		if err := f.appendFn(ctx, key, kind, entry); err != nil {
			return err
		}
	}
	f.appended = append(f.appended, appended{key: key, kind: kind, entry: entry})
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, key string) (domain.LedgerMonth, error) {
	if f.getFn == nil {
		panic("Get not configured")
	}
	return f.getFn(ctx, key)
}

var (
	now  = time.Date(2026, 4, 30, 22, 30, 0, 0, time.UTC)
	sess = &domain.Session{ID: "s", UserID: uuid.MustParse("00000000-0000-0000-0000-0000000000aa")}
)

func newService(repo store.LedgerRepository, loc *time.Location) *Service {
	return NewService(repo, Config{Location: loc, Now: func() time.Time { return now }})
}

func TestRecordIncome_UsesLocalMonth(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Beirut")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	repo := &fakeRepo{}
	s := newService(repo, loc)

	err = s.RecordIncome(context.Background(), now, domain.LedgerEntry{Type: " Piano - Rami ", Value: decimal.RequireFromString("30")})
	if err != nil {
		t.Fatalf("RecordIncome error: %v", err)
	}
	if len(repo.appended) != 1 {
		t.Fatalf("appended = %d, want 1", len(repo.appended))
	}
	got := repo.appended[0]
	if got.key != "202605" {
		t.Fatalf("key = %q, want %q (May 1st in Beirut)", got.key, "202605")
	}
	if got.kind != domain.LedgerIncome || got.entry.Type != "Piano - Rami" {
		t.Fatalf("appended = %+v", got)
	}
}

func TestRecordIncome_ZeroValueRecorded(t *testing.T) {
	repo := &fakeRepo{}
	s := newService(repo, time.UTC)

	if err := s.RecordIncome(context.Background(), now, domain.LedgerEntry{Type: "Trial - Rami"}); err != nil {
		t.Fatalf("RecordIncome error: %v", err)
	}
	if len(repo.appended) != 1 || !repo.appended[0].entry.Value.IsZero() {
		t.Fatalf("appended = %+v, want one zero-value income line", repo.appended)
	}

	err := s.RecordIncome(context.Background(), now, domain.LedgerEntry{Type: "Refund", Value: decimal.NewFromInt(-1)})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "value" {
		t.Fatalf("negative income err = %v, want value validation error", err)
	}
	if len(repo.appended) != 1 {
		t.Fatalf("appended = %d, want 1", len(repo.appended))
	}
}

func TestRecordEntry_Validation(t *testing.T) {
	s := newService(&fakeRepo{}, time.UTC)

	tests := []struct {
		name   string
		kind   domain.LedgerKind
		entry  domain.LedgerEntry
		reason domain.ValidationReason
	}{
		{name: "unknown kind", kind: "refund", entry: domain.LedgerEntry{Type: "x", Value: decimal.NewFromInt(1)}, reason: domain.ReasonInvalidField},
		{name: "missing type", kind: domain.LedgerExpense, entry: domain.LedgerEntry{Value: decimal.NewFromInt(1)}, reason: domain.ReasonMissingField},
		{name: "zero value", kind: domain.LedgerExpense, entry: domain.LedgerEntry{Type: "Rent"}, reason: domain.ReasonInvalidField},
		{name: "negative value", kind: domain.LedgerIncome, entry: domain.LedgerEntry{Type: "Gift", Value: decimal.NewFromInt(-5)}, reason: domain.ReasonInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.RecordEntry(context.Background(), sess, tt.kind, tt.entry)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) || vErr.Reason != tt.reason {
				t.Fatalf("err = %v, want reason %q", err, tt.reason)
			}
		})
	}

	if _, err := s.RecordEntry(context.Background(), nil, domain.LedgerExpense, domain.LedgerEntry{Type: "Rent", Value: decimal.NewFromInt(1)}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("err = %v, want %v", err, domain.ErrUnauthenticated)
	}
}

func TestRecordEntry_Expense(t *testing.T) {
	repo := &fakeRepo{}
	s := newService(repo, time.UTC)

	key, err := s.RecordEntry(context.Background(), sess, domain.LedgerExpense, domain.LedgerEntry{
		Type:    "Rent",
		Value:   decimal.RequireFromString("400.004"),
		Details: domain.LedgerDetails{Description: " April "},
	})
	if err != nil {
		t.Fatalf("RecordEntry error: %v", err)
	}
	if key != "202604" {
		t.Fatalf("key = %q, want %q", key, "202604")
	}
	got := repo.appended[0].entry
	if !got.Value.Equal(decimal.RequireFromString("400")) || got.Details.Description != "April" {
		t.Fatalf("entry = %+v", got)
	}
}

func TestMonth(t *testing.T) {
	repo := &fakeRepo{
		getFn: func(ctx context.Context, key string) (domain.LedgerMonth, error) {
			if key == "202603" {
				return domain.LedgerMonth{
					ID:      key,
					Income:  []domain.LedgerEntry{{Type: "a", Value: decimal.NewFromInt(50)}},
					Expense: []domain.LedgerEntry{{Type: "b", Value: decimal.NewFromInt(20)}},
				}, nil
			}
			return domain.LedgerMonth{}, store.ErrNotFound
		},
	}
	s := newService(repo, time.UTC)

	sum, err := s.Month(context.Background(), sess, "202603")
	if err != nil {
		t.Fatalf("Month error: %v", err)
	}
	if !sum.Net.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("net = %s, want 30", sum.Net)
	}

	empty, err := s.Month(context.Background(), sess, "")
	if err != nil {
		t.Fatalf("Month error: %v", err)
	}
	if empty.Month.ID != "202604" || len(empty.Month.Income) != 0 || !empty.Net.IsZero() {
		t.Fatalf("empty month = %+v", empty)
	}

	_, err = s.Month(context.Background(), sess, "2026-04")
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want *domain.ValidationError", err)
	}
}
