package grpc

import (
	"context"
	"log/slog"
	"strings"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/domain"
)

func (s *Server) AddLedgerEntry(ctx context.Context, req *AddLedgerEntryRequest) (*AddLedgerEntryResponse, error) {
	log := s.rpcLog("AddLedgerEntry")

	kind := domain.LedgerKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if !kind.IsValid() {
		return nil, invalidArgument("kind", string(domain.ReasonInvalidField), "kind must be income or expense")
	}

	month, err := s.ledger.RecordEntry(ctx, auth.SessionFrom(ctx), kind, domain.LedgerEntry{
		Type:    req.Type,
		Value:   req.Value,
		Details: domain.LedgerDetails{Description: req.Description},
	})
	if err != nil {
		return nil, toStatus(log, err)
	}
	log.Info("ledger entry added", slog.String("month", month), slog.String("kind", string(kind)))
	return &AddLedgerEntryResponse{Month: month}, nil
}

func (s *Server) GetLedgerMonth(ctx context.Context, req *GetLedgerMonthRequest) (*LedgerMonthResponse, error) {
	sum, err := s.ledger.Month(ctx, auth.SessionFrom(ctx), req.Month)
	if err != nil {
		return nil, toStatus(s.rpcLog("GetLedgerMonth"), err)
	}

	out := &LedgerMonthResponse{
		Month:   sum.Month.ID,
		Income:  sum.Month.Income,
		Expense: sum.Month.Expense,
		Totals:  LedgerTotals{Income: sum.Income, Expense: sum.Expense, Net: sum.Net},
	}
	if out.Income == nil {
		out.Income = []domain.LedgerEntry{}
	}
	if out.Expense == nil {
		out.Expense = []domain.LedgerEntry{}
	}
	return out, nil
}
