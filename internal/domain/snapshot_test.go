package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestSnapshotsDoNotFollowLaterEdits(t *testing.T) {
	svc := Service{
		ID:              uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Name:            "Piano",
		DurationMinutes: 45,
		SessionPrice:    decimal.RequireFromString("30"),
		Capacity:        1,
		AvailableDays:   []string{"Monday"},
	}
	client := Client{
		ID:          uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		FirstName:   "Rami",
		LastName:    "Haddad",
		PhoneNumber: "70123456",
	}

	svcSnap := svc.Snapshot()
	clientSnap := client.Snapshot(svc.SessionPrice)

	svc.Name = "Violin"
	svc.AvailableDays[0] = "Friday"
	svc.SessionPrice = decimal.RequireFromString("99")
	client.PhoneNumber = "03999999"

	if svcSnap.Name != "Piano" {
		t.Fatalf("service snapshot name = %q, want %q", svcSnap.Name, "Piano")
	}
	if svcSnap.AvailableDays[0] != "Monday" {
		t.Fatalf("service snapshot days = %v, want [Monday]", svcSnap.AvailableDays)
	}
	if !svcSnap.SessionPrice.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("service snapshot price = %s, want 30", svcSnap.SessionPrice)
	}
	if clientSnap.PhoneNumber != "70123456" {
		t.Fatalf("client snapshot phone = %q, want %q", clientSnap.PhoneNumber, "70123456")
	}
	if clientSnap.Paid {
		t.Fatalf("client snapshot should start unpaid")
	}
	if !clientSnap.AmountToPay.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("amountToPay = %s, want 30", clientSnap.AmountToPay)
	}
}

func TestValidPhoneNumber(t *testing.T) {
	valid := []string{"03123456", "70123456", "81000000", "06999999"}
	invalid := []string{"", "0312345", "031234567", "05123456", "+96170123456", "70 123 456"}

	for _, p := range valid {
		if !ValidPhoneNumber(p) {
			t.Errorf("ValidPhoneNumber(%q) = false, want true", p)
		}
	}
	for _, p := range invalid {
		if ValidPhoneNumber(p) {
			t.Errorf("ValidPhoneNumber(%q) = true, want false", p)
		}
	}
}

func TestAppointmentClose(t *testing.T) {
	a := Appointment{Status: AppointmentStatusNew}
	if err := a.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if a.Status != AppointmentStatusClosed {
		t.Fatalf("status = %q, want %q", a.Status, AppointmentStatusClosed)
	}
	if err := a.Close(); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("second Close error = %v, want %v", err, ErrInvalidStatusTransition)
	}
}

func TestSessionValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	live := &Session{ID: "s1", UserID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), ExpiresAt: now.Add(time.Hour)}

	if !live.Valid(now) {
		t.Fatalf("expected live session to be valid")
	}
	if live.Valid(now.Add(2 * time.Hour)) {
		t.Fatalf("expected expired session to be invalid")
	}

	var missing *Session
	if missing.Valid(now) {
		t.Fatalf("expected nil session to be invalid")
	}
	if (&Session{ID: "s2"}).Valid(now) {
		t.Fatalf("expected session without user to be invalid")
	}
}
