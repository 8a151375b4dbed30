package ledger

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}(0[1-9]|1[0-2])$`)

type Config struct {
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service keeps the monthly income/expense documents.
type Service struct {
	repo store.LedgerRepository
	loc  *time.Location
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo store.LedgerRepository, cfg Config) *Service {
	s := &Service{repo: repo, loc: cfg.Location, log: cfg.Logger, now: cfg.Now}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.log = s.log.With(slog.String("component", "ledger"))
	return s
}

// RecordIncome appends an income line to the month containing at. A zero value
// is recorded: a session of a free service still gets its line.
func (s *Service) RecordIncome(ctx context.Context, at time.Time, entry domain.LedgerEntry) error {
	entry, err := normalizeEntry(entry, true)
	if err != nil {
		return err
	}
	key := domain.LedgerKey(at.In(s.loc))
	if err := s.repo.Append(ctx, key, domain.LedgerIncome, entry); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "ledger income recorded", slog.String("month", key), slog.String("type", entry.Type))
	return nil
}

// RecordEntry adds a manual income or expense line to the current month and
// returns the month key it landed in.
func (s *Service) RecordEntry(ctx context.Context, sess *domain.Session, kind domain.LedgerKind, entry domain.LedgerEntry) (string, error) {
	if !sess.Valid(s.now()) {
		return "", domain.ErrUnauthenticated
	}
	if !kind.IsValid() {
		return "", domain.NewValidationError(domain.ReasonInvalidField, "kind", "kind must be income or expense")
	}
	entry, err := normalizeEntry(entry, false)
	if err != nil {
		return "", err
	}

	key := domain.LedgerKey(s.now().In(s.loc))
	if err := s.repo.Append(ctx, key, kind, entry); err != nil {
		return "", err
	}
	s.log.InfoContext(ctx, "ledger entry recorded",
		slog.String("month", key),
		slog.String("kind", string(kind)),
		slog.String("type", entry.Type),
	)
	return key, nil
}

type MonthSummary struct {
	Month   domain.LedgerMonth
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Month returns the ledger document for key (YYYYMM) with its totals. An
// empty key selects the current month. A month with no entries yet is
// returned empty.
func (s *Service) Month(ctx context.Context, sess *domain.Session, key string) (MonthSummary, error) {
	if !sess.Valid(s.now()) {
		return MonthSummary{}, domain.ErrUnauthenticated
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = domain.LedgerKey(s.now().In(s.loc))
	}
	if !monthKeyPattern.MatchString(key) {
		return MonthSummary{}, domain.NewValidationError(domain.ReasonInvalidField, "month", "month must be formatted YYYYMM")
	}

	m, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return MonthSummary{}, err
		}
		m = domain.LedgerMonth{ID: key}
	}
	if m.Income == nil {
		m.Income = []domain.LedgerEntry{}
	}
	if m.Expense == nil {
		m.Expense = []domain.LedgerEntry{}
	}

	income, expense, net := m.Totals()
	return MonthSummary{Month: m, Income: income, Expense: expense, Net: net}, nil
}

func normalizeEntry(entry domain.LedgerEntry, allowZero bool) (domain.LedgerEntry, error) {
	entry.Type = strings.TrimSpace(entry.Type)
	if entry.Type == "" {
		return domain.LedgerEntry{}, domain.NewValidationError(domain.ReasonMissingField, "type", "type is required")
	}
	switch {
	case entry.Value.IsNegative():
		return domain.LedgerEntry{}, domain.NewValidationError(domain.ReasonInvalidField, "value", "value must not be negative")
	case entry.Value.IsZero() && !allowZero:
		return domain.LedgerEntry{}, domain.NewValidationError(domain.ReasonInvalidField, "value", "value must be greater than zero")
	}
	entry.Value = entry.Value.Round(2)
	entry.Details.Description = strings.TrimSpace(entry.Details.Description)
	return entry, nil
}
