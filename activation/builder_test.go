package activation_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alovak/card-activation/activation"
	"github.com/alovak/card-activation/activation/models"
	"github.com/alovak/card-activation/internal/password"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validRequest() models.ActivationRequest {
	return models.ActivationRequest{
		CardType:      "Visa",
		LastSixDigits: models.FormText("123456"),
		HolderName:    "Ada Lovelace",
		Currency:      "USD",
		DailyLimit:    models.FormText("1000"),
		Accept:        models.FormBool(true),
		PIN:           models.FormText("4321"),
	}
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	require.Equal(t, reason, ve.Reason)
}

func TestBuildActivation(t *testing.T) {
	hasher := password.NewHasher(bcrypt.MinCost)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid form", func(t *testing.T) {
		record, err := activation.BuildActivation(validRequest(), "203.0.113.5", now, hasher)
		require.NoError(t, err)

		require.NotEmpty(t, record.ID)
		require.Equal(t, "Visa", record.CardType)
		require.Equal(t, "123456", record.LastSixDigits)
		require.Equal(t, 1000, record.DailyLimit)
		require.True(t, record.Accept)
		require.Equal(t, "203.0.113.5", record.UserIP)
		require.Equal(t, now, record.CreatedAt)
		require.NotEqual(t, "4321", record.PINHash)
		require.NoError(t, hasher.Compare(record.PINHash, "4321"))
	})

	t.Run("limit bounds", func(t *testing.T) {
		for _, limit := range []string{"0", "5000", "2500"} {
			req := validRequest()
			req.DailyLimit = models.FormText(limit)
			_, err := activation.BuildActivation(req, "", now, hasher)
			require.NoError(t, err, limit)
		}
		for _, limit := range []string{"5001", "-1", "12.5", "lots"} {
			req := validRequest()
			req.DailyLimit = models.FormText(limit)
			_, err := activation.BuildActivation(req, "", now, hasher)
			requireReason(t, err, models.ReasonRange)
		}
	})

	t.Run("currencies", func(t *testing.T) {
		for _, c := range models.Currencies {
			req := validRequest()
			req.Currency = c
			_, err := activation.BuildActivation(req, "", now, hasher)
			require.NoError(t, err, c)
		}

		req := validRequest()
		req.Currency = "XYZ"
		_, err := activation.BuildActivation(req, "", now, hasher)
		requireReason(t, err, models.ReasonCurrency)
	})

	t.Run("terms not accepted", func(t *testing.T) {
		for _, accept := range []models.FormValue{
			models.FormBool(false),
			models.FormText(""),
			models.FormText("false"),
			models.FormText("0"),
			numberValue(t, "0"),
		} {
			req := validRequest()
			req.Accept = accept
			_, err := activation.BuildActivation(req, "", now, hasher)
			requireReason(t, err, models.ReasonTerms)
		}
	})

	t.Run("truthy accept", func(t *testing.T) {
		for _, accept := range []models.FormValue{models.FormText("true"), models.FormText("yes"), numberValue(t, "1")} {
			req := validRequest()
			req.Accept = accept
			_, err := activation.BuildActivation(req, "", now, hasher)
			require.NoError(t, err)
		}
	})

	t.Run("bad digits with a string accept", func(t *testing.T) {
		req := validRequest()
		req.LastSixDigits = models.FormText("12")
		req.Accept = models.FormText("true")
		_, err := activation.BuildActivation(req, "", now, hasher)
		requireReason(t, err, models.ReasonFormat)
	})

	t.Run("integer valued limits", func(t *testing.T) {
		for _, limit := range []models.FormValue{numberValue(t, "100.0"), numberValue(t, "1e3"), models.FormText("5000.00")} {
			req := validRequest()
			req.DailyLimit = limit
			record, err := activation.BuildActivation(req, "", now, hasher)
			require.NoError(t, err)
			require.Contains(t, []int{100, 1000, 5000}, record.DailyLimit)
		}
		for _, limit := range []models.FormValue{numberValue(t, "1e50000000"), numberValue(t, "100.5")} {
			req := validRequest()
			req.DailyLimit = limit
			_, err := activation.BuildActivation(req, "", now, hasher)
			requireReason(t, err, models.ReasonRange)
		}
	})

	t.Run("bad pin", func(t *testing.T) {
		for _, pin := range []string{"123", "12345", "12a4"} {
			req := validRequest()
			req.PIN = models.FormText(pin)
			_, err := activation.BuildActivation(req, "", now, hasher)
			requireReason(t, err, models.ReasonPIN)
		}
	})

	t.Run("bad digits", func(t *testing.T) {
		req := validRequest()
		req.LastSixDigits = models.FormText("12345a")
		_, err := activation.BuildActivation(req, "", now, hasher)
		requireReason(t, err, models.ReasonFormat)
	})

	t.Run("missing fields", func(t *testing.T) {
		mutations := map[string]func(*models.ActivationRequest){
			"card type":   func(r *models.ActivationRequest) { r.CardType = "" },
			"digits":      func(r *models.ActivationRequest) { r.LastSixDigits = models.FormValue{} },
			"holder name": func(r *models.ActivationRequest) { r.HolderName = "  " },
			"currency":    func(r *models.ActivationRequest) { r.Currency = "" },
			"limit":       func(r *models.ActivationRequest) { r.DailyLimit = models.FormValue{} },
			"accept":      func(r *models.ActivationRequest) { r.Accept = models.FormValue{} },
			"pin":         func(r *models.ActivationRequest) { r.PIN = models.FormText("") },
		}
		for name, mutate := range mutations {
			req := validRequest()
			mutate(&req)
			_, err := activation.BuildActivation(req, "", now, hasher)
			requireReason(t, err, models.ReasonRequired)
			require.Contains(t, err.Error(), "All fields are required", name)
		}
	})

	t.Run("first failing check wins", func(t *testing.T) {
		req := validRequest()
		req.LastSixDigits = models.FormText("12")
		req.Currency = "XYZ"
		req.DailyLimit = models.FormText("9000")
		_, err := activation.BuildActivation(req, "", now, hasher)
		requireReason(t, err, models.ReasonFormat)

		req = validRequest()
		req.Currency = "XYZ"
		req.DailyLimit = models.FormText("9000")
		_, err = activation.BuildActivation(req, "", now, hasher)
		requireReason(t, err, models.ReasonRange)
	})
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", fmt.Errorf("boom") }

func TestBuildActivation_HashFailure(t *testing.T) {
	_, err := activation.BuildActivation(validRequest(), "", time.Now(), failingHasher{})
	require.Error(t, err)

	var ve *models.ValidationError
	require.False(t, errors.As(err, &ve))
}

func TestValidateDigits(t *testing.T) {
	require.NoError(t, activation.ValidateDigits(models.FormText("000000")))
	require.NoError(t, activation.ValidateDigits(models.FormText("987654")))

	requireReason(t, activation.ValidateDigits(models.FormValue{}), models.ReasonRequired)
	requireReason(t, activation.ValidateDigits(models.FormText("")), models.ReasonRequired)

	for _, bad := range []string{"12345", "1234567", "12 456", "abcdef", "12345\n"} {
		requireReason(t, activation.ValidateDigits(models.FormText(bad)), models.ReasonFormat)
	}
}

// numberValue decodes raw as a JSON number the way a request body would.
func numberValue(t *testing.T, raw string) models.FormValue {
	t.Helper()
	var v models.FormValue
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}
