package grpc

import (
	"context"
	"log/slog"

	"tutora/backend/internal/auth"
	"tutora/backend/internal/domain"
)

func (s *Server) SignIn(ctx context.Context, req *SignInRequest) (*SignInResponse, error) {
	log := s.rpcLog("SignIn")

	if req.Email == "" || req.Password == "" {
		return nil, invalidArgument("email", string(domain.ReasonMissingField), "email and password are required")
	}
	res, err := s.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(log, err)
	}
	return &SignInResponse{
		Token:     res.Token,
		UserID:    res.Session.UserID.String(),
		Email:     res.Session.Email,
		ExpiresAt: res.Session.ExpiresAt,
	}, nil
}

func (s *Server) SignOut(ctx context.Context, _ *Empty) (*Empty, error) {
	if err := s.auth.SignOut(ctx, auth.SessionFrom(ctx)); err != nil {
		return nil, toStatus(s.rpcLog("SignOut"), err)
	}
	return &Empty{}, nil
}

func (s *Server) SendPasswordReset(ctx context.Context, req *SendPasswordResetRequest) (*Empty, error) {
	if err := s.auth.SendPasswordReset(ctx, req.Email); err != nil {
		return nil, toStatus(s.rpcLog("SendPasswordReset"), err)
	}
	return &Empty{}, nil
}

func (s *Server) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*Empty, error) {
	if err := s.auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return nil, toStatus(s.rpcLog("ResetPassword"), err)
	}
	return &Empty{}, nil
}

func (s *Server) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*Empty, error) {
	log := s.rpcLog("ChangePassword")
	sess := auth.SessionFrom(ctx)
	if err := s.auth.ChangePassword(ctx, sess, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, toStatus(log, err)
	}
	log.Info("password changed", slog.String("user_id", sess.UserID.String()))
	return &Empty{}, nil
}
