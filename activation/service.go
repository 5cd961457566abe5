package activation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alovak/card-activation/activation/models"
	"github.com/alovak/card-activation/internal/digits"
	"github.com/alovak/card-activation/internal/password"
	"github.com/alovak/card-activation/internal/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"
)

const (
	msgLoginRequired      = "Username and password are required"
	msgInvalidCredentials = "Invalid credentials"
	msgNoToken            = "No token provided"
	msgMalformedHeader    = "Malformed token header"
	msgInvalidToken       = "Invalid or expired token"
	msgFeesRequired       = "All fee fields are required"
	msgFeesNumeric        = "Fee values must be numeric"
)

// maxFeePrice bounds a single fee amount.
var maxFeePrice = decimal.New(1, 12)

type Service struct {
	repo    *Repository
	cfg     *Config
	logger  *slog.Logger
	hasher  *password.Hasher
	session *session.Issuer
	now     func() time.Time
}

func NewService(repo *Repository, cfg *Config, logger *slog.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{
		repo:    repo,
		cfg:     cfg,
		logger:  logger,
		hasher:  password.NewHasher(cfg.BcryptCost),
		session: session.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		now:     time.Now,
	}
}

// ValidateDigits acknowledges a well-formed last-six-digits value.
func (s *Service) ValidateDigits(req models.DigitsRequest) error {
	return ValidateDigits(req.LastSixDigits)
}

// Activate validates the form and stores one activation record.
func (s *Service) Activate(ctx context.Context, req models.ActivationRequest, clientIP string) (*models.Activation, error) {
	record, err := BuildActivation(req, clientIP, s.now(), s.hasher)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateActivation(ctx, record); err != nil {
		return nil, &models.PersistenceError{Op: "creating activation", Err: err}
	}

	s.logger.Info("card activated",
		slog.String("activation_id", record.ID),
		slog.String("last_six_digits", digits.Mask(record.LastSixDigits)),
		slog.String("card_type", record.CardType),
		slog.String("currency", record.Currency),
		slog.String("client_ip", clientIP),
	)

	return record, nil
}

// Login checks the admin's credentials and returns a signed session token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest, clientIP string) (string, error) {
	if req.Username == "" || req.Password == "" {
		return "", &models.ValidationError{Reason: models.ReasonRequired, Message: msgLoginRequired}
	}

	admin, err := s.repo.FindAdminByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("admin login rejected", slog.String("username", req.Username), slog.String("client_ip", clientIP))
			return "", &models.AuthError{Reason: models.ReasonInvalid, Message: msgInvalidCredentials}
		}
		return "", &models.PersistenceError{Op: "finding admin", Err: err}
	}

	if err := s.hasher.Compare(admin.PasswordHash, req.Password); err != nil {
		s.logger.Warn("admin login rejected", slog.String("username", req.Username), slog.String("client_ip", clientIP))
		return "", &models.AuthError{Reason: models.ReasonInvalid, Message: msgInvalidCredentials}
	}

	if err := s.repo.UpdateAdminIP(ctx, admin.ID, clientIP); err != nil {
		return "", &models.PersistenceError{Op: "updating admin ip", Err: err}
	}

	token, _, err := s.session.Issue(admin.ID, admin.Username)
	if err != nil {
		return "", fmt.Errorf("issuing session: %w", err)
	}

	s.logger.Info("admin logged in",
		slog.String("admin_id", admin.ID),
		slog.String("username", admin.Username),
		slog.String("client_ip", clientIP),
	)

	return token, nil
}

// Authenticate verifies an Authorization header value.
func (s *Service) Authenticate(header string) (session.Claims, error) {
	claims, err := s.session.VerifyHeader(header)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, session.ErrMissingToken):
		return session.Claims{}, &models.AuthError{Reason: models.ReasonMissing, Message: msgNoToken}
	case errors.Is(err, session.ErrMalformedHeader):
		return session.Claims{}, &models.AuthError{Reason: models.ReasonMalformed, Message: msgMalformedHeader}
	default:
		return session.Claims{}, &models.AuthError{Reason: models.ReasonInvalid, Message: msgInvalidToken}
	}
}

// UpdateFees replaces the fee ledger with the submitted values.
func (s *Service) UpdateFees(ctx context.Context, update models.FeeUpdate, admin session.Claims, clientIP string) ([]*models.FeeLineItem, error) {
	values := update.Values()
	for _, v := range values {
		if !v.Present() {
			return nil, &models.ValidationError{Reason: models.ReasonRequired, Message: msgFeesRequired}
		}
	}

	prices := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		d, ok := v.Decimal()
		if !ok || d.Abs().GreaterThan(maxFeePrice) {
			return nil, &models.ValidationError{Reason: models.ReasonNumeric, Message: msgFeesNumeric}
		}
		prices = append(prices, d)
	}

	items := buildFeeLedger(prices, s.now())
	if err := s.repo.ReplaceFees(ctx, items); err != nil {
		return nil, &models.PersistenceError{Op: "replacing fees", Err: err}
	}

	s.logger.Info("fees updated",
		slog.String("admin_id", admin.AdminID),
		slog.String("username", admin.Username),
		slog.String("client_ip", clientIP),
		slog.String("fees", formatPrices(prices)),
	)

	return items, nil
}

// ListFees returns the fee ledger, seeding it first if it is empty.
func (s *Service) ListFees(ctx context.Context) ([]*models.FeeLineItem, error) {
	items, err := s.repo.ListFees(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "listing fees", Err: err}
	}
	if len(items) > 0 {
		return items, nil
	}

	if _, err := s.SeedFees(ctx); err != nil {
		return nil, err
	}

	items, err = s.repo.ListFees(ctx)
	if err != nil {
		return nil, &models.PersistenceError{Op: "listing fees", Err: err}
	}
	return items, nil
}

// SeedFees stores the zero-priced canonical ledger if none exists.
func (s *Service) SeedFees(ctx context.Context) (bool, error) {
	seeded, err := s.repo.SeedFees(ctx, buildFeeLedger(nil, s.now()))
	if err != nil {
		return false, &models.PersistenceError{Op: "seeding fees", Err: err}
	}
	if seeded {
		s.logger.Info("default fees seeded")
	}
	return seeded, nil
}

// SeedAdmin creates the configured admin when no admin exists yet.
func (s *Service) SeedAdmin(ctx context.Context) (bool, error) {
	n, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return false, &models.PersistenceError{Op: "counting admins", Err: err}
	}
	if n > 0 {
		return false, nil
	}

	hash, err := s.hasher.Hash(s.cfg.AdminPassword)
	if err != nil {
		return false, fmt.Errorf("hashing admin password: %w", err)
	}

	admin := &models.Admin{
		ID:           uuid.New().String(),
		Username:     s.cfg.AdminUsername,
		PasswordHash: hash,
		CreatedAt:    truncateToMicro(s.now()),
	}
	if err := s.repo.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, &models.PersistenceError{Op: "creating admin", Err: err}
	}

	s.logger.Info("default admin created", slog.String("username", admin.Username))
	return true, nil
}

func formatPrices(prices []decimal.Decimal) string {
	parts := make([]string, 0, len(prices))
	for i, p := range prices {
		parts = append(parts, models.FeeLabels[i]+"="+p.String())
	}
	return strings.Join(parts, "; ")
}
