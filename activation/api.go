package activation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alovak/card-activation/activation/models"
	"github.com/alovak/card-activation/internal/middleware"
	"github.com/alovak/card-activation/internal/session"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

const (
	msgInvalidBody      = "Invalid request body"
	msgDigitsValidated  = "Digits validated successfully"
	msgCardActivated    = "Card activated successfully"
	msgLoginSuccessful  = "Login successful"
	msgFeesUpdated      = "Fees updated successfully"
	msgActivationFailed = "Unexpected error occurred."
	msgFeesUpdateFailed = "Error occurred while updating fees."
	msgFeesListFailed   = "Error occurred while fetching payments."
	msgServerError      = "Server error"
)

type ctxKey string

const ctxKeyAdmin ctxKey = "admin"

// response is the envelope every endpoint answers with.
type response struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message,omitempty"`
	Token    string                `json:"token,omitempty"`
	Payments []*models.FeeLineItem `json:"payments,omitempty"`
}

// API is a HTTP API for the activation service
type API struct {
	svc    *Service
	logger *slog.Logger
}

func NewAPI(svc *Service, logger *slog.Logger) *API {
	return &API{
		svc:    svc,
		logger: logger,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Post("/validate-digits", a.validateDigits)
	r.Post("/activate", a.activate)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", a.login)
		r.With(a.requireAdmin).Post("/update-fees", a.updateFees)
	})

	r.Get("/api/payments", a.listFees)
}

func (a *API) validateDigits(w http.ResponseWriter, r *http.Request) {
	var req models.DigitsRequest
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.svc.ValidateDigits(req); err != nil {
		a.writeError(w, r, err, msgServerError)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: msgDigitsValidated})
}

func (a *API) activate(w http.ResponseWriter, r *http.Request) {
	var req models.ActivationRequest
	if !a.decode(w, r, &req) {
		return
	}

	if _, err := a.svc.Activate(r.Context(), req, middleware.ClientIPFromContext(r.Context())); err != nil {
		a.writeError(w, r, err, msgActivationFailed)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: msgCardActivated})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !a.decode(w, r, &req) {
		return
	}

	token, err := a.svc.Login(r.Context(), req, middleware.ClientIPFromContext(r.Context()))
	if err != nil {
		a.writeError(w, r, err, msgServerError)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: msgLoginSuccessful, Token: token})
}

func (a *API) updateFees(w http.ResponseWriter, r *http.Request) {
	var update models.FeeUpdate
	if !a.decode(w, r, &update) {
		return
	}

	admin, _ := r.Context().Value(ctxKeyAdmin).(session.Claims)

	items, err := a.svc.UpdateFees(r.Context(), update, admin, middleware.ClientIPFromContext(r.Context()))
	if err != nil {
		a.writeError(w, r, err, msgFeesUpdateFailed)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Message: msgFeesUpdated, Payments: items})
}

func (a *API) listFees(w http.ResponseWriter, r *http.Request) {
	items, err := a.svc.ListFees(r.Context())
	if err != nil {
		a.writeError(w, r, err, msgFeesListFailed)
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Payments: items})
}

// requireAdmin rejects requests without a valid bearer token and puts the
// verified claims on the request context.
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.svc.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			a.writeError(w, r, err, msgServerError)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyAdmin, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// decode reads a JSON body into dst. An empty body leaves dst zero so the
// route's own required-field checks answer.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, response{Message: msgInvalidBody})
		return false
	}
	return true
}

// writeError maps domain errors to status codes. Anything that is not a
// validation or auth failure is logged and answered with fallback.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, response{Message: validationErr.Message})
		return
	}

	var authErr *models.AuthError
	if errors.As(err, &authErr) {
		writeJSON(w, http.StatusUnauthorized, response{Message: authErr.Message})
		return
	}

	a.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("client_ip", middleware.ClientIPFromContext(r.Context())),
		slog.Any("err", err),
	)
	writeJSON(w, http.StatusInternalServerError, response{Message: fallback})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
