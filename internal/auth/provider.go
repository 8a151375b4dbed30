package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tutora/backend/internal/domain"
	"tutora/backend/internal/notify"
	"tutora/backend/internal/store"
)

const minPasswordLength = 8

type sessionStore interface {
	SaveSession(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error
	SessionActive(ctx context.Context, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, sessionID string, userID uuid.UUID) error
	RevokeUserSessions(ctx context.Context, userID uuid.UUID) error
	SaveReset(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error
	ConsumeReset(ctx context.Context, tokenHash string) (uuid.UUID, error)
}

type Config struct {
	SessionTTL    time.Duration
	ResetTTL      time.Duration
	BcryptCost    int
	ResetTemplate string
	Logger        *slog.Logger
	Now           func() time.Time
}

// SignInResult is the bearer token and the session it stands for.
type SignInResult struct {
	Token   string
	Session domain.Session
}

// Provider signs administrators in and out, validates bearer tokens and runs
// the password reset flow.
type Provider struct {
	users    store.UserRepository
	sessions sessionStore
	tokens   *TokenManager
	mailer   notify.EmailSender
	cfg      Config
	log      *slog.Logger

	mu        sync.Mutex
	nextSub   int
	listeners map[int]func(*domain.Session)
}

func NewProvider(users store.UserRepository, sessions sessionStore, tokens *TokenManager, mailer notify.EmailSender, cfg Config) *Provider {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Provider{
		users:     users,
		sessions:  sessions,
		tokens:    tokens,
		mailer:    mailer,
		cfg:       cfg,
		log:       log.With(slog.String("component", "auth")),
		listeners: make(map[int]func(*domain.Session)),
	}
}

// OnSessionChange registers fn to be called with the new session after every
// sign-in and with nil after every sign-out. The returned func unsubscribes.
func (p *Provider) OnSessionChange(fn func(*domain.Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *Provider) notifyChange(sess *domain.Session) {
	p.mu.Lock()
	fns := make([]func(*domain.Session), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return SignInResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return SignInResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		p.log.WarnContext(ctx, "sign-in rejected", slog.String("user_id", user.ID.String()))
		return SignInResult{}, ErrInvalidCredentials
	}

	now := p.cfg.Now().UTC()
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		IssuedAt:  now.Truncate(time.Second),
		ExpiresAt: now.Add(p.cfg.SessionTTL).Truncate(time.Second),
	}
	token, err := p.tokens.Issue(sess)
	if err != nil {
		return SignInResult{}, err
	}
	if err := p.sessions.SaveSession(ctx, sess.ID, sess.UserID, p.cfg.SessionTTL); err != nil {
		return SignInResult{}, fmt.Errorf("auth: save session: %w", err)
	}

	p.log.InfoContext(ctx, "signed in", slog.String("user_id", user.ID.String()))
	p.notifyChange(&sess)
	return SignInResult{Token: token, Session: sess}, nil
}

func (p *Provider) SignOut(ctx context.Context, sess *domain.Session) error {
	if !sess.Valid(p.cfg.Now()) {
		return ErrUnauthenticated
	}
	if err := p.sessions.DeleteSession(ctx, sess.ID, sess.UserID); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	p.log.InfoContext(ctx, "signed out", slog.String("user_id", sess.UserID.String()))
	p.notifyChange(nil)
	return nil
}

// Authenticate resolves a bearer token to a live session.
func (p *Provider) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := p.tokens.Parse(token, p.cfg.Now())
	if err != nil {
		return nil, err
	}
	active, err := p.sessions.SessionActive(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: lookup session: %w", err)
	}
	if !active {
		return nil, ErrUnauthenticated
	}
	return &sess, nil
}

// SendPasswordReset mails a single-use reset token. Unknown addresses succeed
// silently so the endpoint does not reveal which accounts exist.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.NewValidationError(domain.ReasonMissingField, "email", "email is required")
	}
	user, err := p.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		p.log.InfoContext(ctx, "password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := p.sessions.SaveReset(ctx, hashResetToken(token), user.ID, p.cfg.ResetTTL); err != nil {
		return fmt.Errorf("auth: save reset token: %w", err)
	}

	err = p.mailer.Send(ctx, notify.TemplateMessage{
		TemplateID: p.cfg.ResetTemplate,
		To:         user.Email,
		ToName:     user.DisplayName,
		Data: map[string]any{
			"userMail":         user.Email,
			"displayName":      user.DisplayName,
			"resetToken":       token,
			"expiresInMinutes": int(p.cfg.ResetTTL.Minutes()),
		},
	})
	if err != nil {
		return err
	}
	p.log.InfoContext(ctx, "password reset sent", slog.String("user_id", user.ID.String()))
	return nil
}

func (p *Provider) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidResetToken
	}
	userID, err := p.sessions.ConsumeReset(ctx, hashResetToken(token))
	if err != nil {
		return err
	}
	if err := p.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	p.log.InfoContext(ctx, "password reset", slog.String("user_id", userID.String()))
	return nil
}

// ChangePassword replaces the signed-in user's password after checking the
// current one. Every session of the user, including sess, is revoked.
func (p *Provider) ChangePassword(ctx context.Context, sess *domain.Session, current, next string) error {
	if !sess.Valid(p.cfg.Now()) {
		return ErrUnauthenticated
	}
	if err := checkPassword(next); err != nil {
		return err
	}
	user, err := p.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	if err := p.setPassword(ctx, user.ID, next); err != nil {
		return err
	}
	p.log.InfoContext(ctx, "password changed", slog.String("user_id", user.ID.String()))
	p.notifyChange(nil)
	return nil
}

// CreateUser provisions an administrator account.
func (p *Provider) CreateUser(ctx context.Context, email, displayName, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.NewValidationError(domain.ReasonInvalidField, "email", "email is not an email address")
	}
	if err := checkPassword(password); err != nil {
		return domain.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return domain.User{}, err
	}
	return p.users.Create(ctx, domain.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
	})
}

func (p *Provider) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := p.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	if err := p.sessions.RevokeUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("auth: revoke sessions: %w", err)
	}
	return nil
}

func checkPassword(pw string) error {
	if utf8.RuneCountInString(pw) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
