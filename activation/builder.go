package activation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alovak/card-activation/activation/models"
	"github.com/alovak/card-activation/internal/digits"
	"github.com/google/uuid"
)

const (
	msgDigitsRequired     = "Please provide the last 6 digits of your card."
	msgDigitsFormat       = "The last 6 digits must be exactly 6 numbers."
	msgActivationRequired = "All fields are required to activate your card."
	msgDailyLimitRange    = "Daily limit must be between 0 and 5000."
	msgUnsupportedCurr    = "Unsupported currency selected."
	msgPINFormat          = "PIN must be exactly 4 digits."
	msgTermsRequired      = "You must accept the terms to proceed."
)

// PINHasher turns a PIN into a value that is safe to store.
type PINHasher interface {
	Hash(secret string) (string, error)
}

// ValidateDigits checks a last-six-digits submission. It never persists.
func ValidateDigits(v models.FormValue) error {
	switch err := digits.ValidateLastSix(v.Text); {
	case err == nil:
		return nil
	case errors.Is(err, digits.ErrRequired):
		return &models.ValidationError{Reason: models.ReasonRequired, Message: msgDigitsRequired}
	default:
		return &models.ValidationError{Reason: models.ReasonFormat, Message: msgDigitsFormat}
	}
}

// BuildActivation validates an activation form and returns the record to
// persist. Checks run in a fixed order and the first failure is returned.
func BuildActivation(req models.ActivationRequest, userIP string, now time.Time, hasher PINHasher) (*models.Activation, error) {
	if !hasAllFields(req) {
		return nil, &models.ValidationError{Reason: models.ReasonRequired, Message: msgActivationRequired}
	}

	if !digits.Exactly(req.LastSixDigits.Text, digits.LastSixLen) {
		return nil, &models.ValidationError{Reason: models.ReasonFormat, Message: msgDigitsFormat}
	}

	limit, ok := req.DailyLimit.Int()
	if !ok || limit < 0 || limit > models.MaxDailyLimit {
		return nil, &models.ValidationError{Reason: models.ReasonRange, Message: msgDailyLimitRange}
	}

	if !models.IsSupportedCurrency(req.Currency) {
		return nil, &models.ValidationError{Reason: models.ReasonCurrency, Message: msgUnsupportedCurr}
	}

	if digits.ValidatePIN(req.PIN.Text) != nil {
		return nil, &models.ValidationError{Reason: models.ReasonPIN, Message: msgPINFormat}
	}

	if !req.Accept.Truthy() {
		return nil, &models.ValidationError{Reason: models.ReasonTerms, Message: msgTermsRequired}
	}

	pinHash, err := hasher.Hash(req.PIN.Text)
	if err != nil {
		return nil, fmt.Errorf("hashing pin: %w", err)
	}

	return &models.Activation{
		ID:            uuid.New().String(),
		CardType:      req.CardType,
		LastSixDigits: req.LastSixDigits.Text,
		HolderName:    req.HolderName,
		Currency:      req.Currency,
		DailyLimit:    limit,
		Accept:        true,
		PINHash:       pinHash,
		UserIP:        userIP,
		CreatedAt:     now.UTC(),
	}, nil
}

// a zero limit or a false accept still count as provided
func hasAllFields(req models.ActivationRequest) bool {
	return strings.TrimSpace(req.CardType) != "" &&
		req.LastSixDigits.Present() &&
		strings.TrimSpace(req.HolderName) != "" &&
		req.Currency != "" &&
		req.DailyLimit.Present() &&
		req.Accept.Set &&
		req.PIN.Present()
}
