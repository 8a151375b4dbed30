package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/store"
	"tutora/backend/migrations"
)

func TestPostgresIntegration_BookingCreateListOverlapAndIdempotency(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("TUTORA_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("TUTORA_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, databaseURL, Options{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "tutora_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		if err := applyMigrations(ctx, tx); err != nil {
			return err
		}

		b := bookingTx{tx: tx}

		start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
		end := start.Add(30 * time.Minute)
		svc := domain.ServiceSnapshot{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000801"),
			Name:            "Piano",
			DurationMinutes: 30,
			SessionPrice:    decimal.RequireFromString("25"),
			Capacity:        1,
		}
		client := domain.ClientSnapshot{
			ID:          uuid.MustParse("00000000-0000-0000-0000-000000000802"),
			FirstName:   "Rami",
			LastName:    "Haddad",
			PhoneNumber: "70123456",
			AmountToPay: decimal.RequireFromString("25"),
		}

		a1, err := b.CreateAppointment(ctx, domain.Appointment{
			ID:       uuid.MustParse("00000000-0000-0000-0000-000000000901"),
			Service:  svc,
			Clients:  []domain.ClientSnapshot{client},
			DateFrom: start,
			DateTo:   end,
			Status:   domain.AppointmentStatusNew,
		})
		if err != nil {
			return err
		}

		rows, err := b.ListOverlapping(ctx, start.Add(15*time.Minute), end.Add(15*time.Minute))
		if err != nil {
			return err
		}
		if len(rows) != 1 || rows[0].ID != a1.ID {
			return fmt.Errorf("overlapping rows = %v, want [%s]", rows, a1.ID)
		}

		touching, err := b.ListOverlapping(ctx, end, end.Add(30*time.Minute))
		if err != nil {
			return err
		}
		if len(touching) != 0 {
			return fmt.Errorf("touching slot returned %d rows, want 0", len(touching))
		}

		replayed, err := b.CreateAppointment(ctx, domain.Appointment{
			ID:       a1.ID,
			Service:  svc,
			Clients:  []domain.ClientSnapshot{client},
			DateFrom: start,
			DateTo:   end,
			Status:   domain.AppointmentStatusNew,
		})
		if err != nil {
			return err
		}
		if !replayed.CreatedDate.Equal(a1.CreatedDate) {
			return fmt.Errorf("replay created_date = %v, want %v", replayed.CreatedDate, a1.CreatedDate)
		}

		_, err = b.CreateAppointment(ctx, domain.Appointment{
			ID:       a1.ID,
			Service:  svc,
			Clients:  []domain.ClientSnapshot{client},
			DateFrom: end,
			DateTo:   end.Add(30 * time.Minute),
			Status:   domain.AppointmentStatusNew,
		})
		if err != store.ErrIdempotencyConflict {
			return fmt.Errorf("idempotency err = %v, want %v", err, store.ErrIdempotencyConflict)
		}

		paid := []domain.ClientSnapshot{client}
		paid[0].Paid = true
		if err := b.UpdateClients(ctx, a1.ID, paid); err != nil {
			return err
		}
		if err := b.UpdateStatus(ctx, a1.ID, domain.AppointmentStatusClosed); err != nil {
			return err
		}
		got, err := b.GetAppointment(ctx, a1.ID)
		if err != nil {
			return err
		}
		if !got.Clients[0].Paid || got.Status != domain.AppointmentStatusClosed {
			return fmt.Errorf("stored appointment = %+v, want paid and closed", got)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

// applyMigrations runs every embedded up migration in name order on exec, so
// the schema lands in whatever search_path the caller set.
func applyMigrations(ctx context.Context, exec rawExecutor) error {
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		b, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(string(b)) {
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
