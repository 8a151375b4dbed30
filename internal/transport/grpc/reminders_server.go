package grpc

import (
	"context"
	"log/slog"

	"tutora/backend/internal/auth"
)

func (s *Server) ListUnpaidBalances(ctx context.Context, _ *Empty) (*ListUnpaidBalancesResponse, error) {
	balances, err := s.reminders.UnpaidBalances(ctx, auth.SessionFrom(ctx))
	if err != nil {
		return nil, toStatus(s.rpcLog("ListUnpaidBalances"), err)
	}

	out := make([]UnpaidBalance, 0, len(balances))
	for _, b := range balances {
		owed := make([]OwedAppointment, 0, len(b.Appointments))
		for _, a := range b.Appointments {
			owed = append(owed, OwedAppointment{
				AppointmentID: a.AppointmentID.String(),
				ServiceName:   a.ServiceName,
				DateFrom:      a.DateFrom,
				DateTo:        a.DateTo,
				Amount:        a.Amount,
			})
		}
		out = append(out, UnpaidBalance{
			ClientID:     b.ClientID.String(),
			FirstName:    b.FirstName,
			LastName:     b.LastName,
			PhoneNumber:  b.PhoneNumber,
			MailAddress:  b.MailAddress,
			TotalOwed:    b.TotalOwed,
			Appointments: owed,
		})
	}
	return &ListUnpaidBalancesResponse{Balances: out}, nil
}

func (s *Server) SendBalanceReminder(ctx context.Context, req *SendBalanceReminderRequest) (*SendBalanceReminderResponse, error) {
	log := s.rpcLog("SendBalanceReminder")

	clientID, err := parseID("clientId", req.ClientID)
	if err != nil {
		return nil, err
	}
	channel, err := s.reminders.SendRecap(ctx, auth.SessionFrom(ctx), clientID)
	if err != nil {
		return nil, toStatus(log.With(slog.String("client_id", clientID.String())), err)
	}
	log.Info("balance reminder sent", slog.String("client_id", clientID.String()), slog.String("channel", channel))
	return &SendBalanceReminderResponse{Channel: channel}, nil
}
