package adminclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alovak/card-activation/activation"
	"github.com/alovak/card-activation/activation/models"
	"github.com/alovak/card-activation/internal/adminclient"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := activation.DefaultConfig()
	cfg.JWTSecret = "client-test"
	cfg.BcryptCost = bcrypt.MinCost

	svc := activation.NewService(activation.NewRepository(), cfg, logger)
	_, err := svc.SeedAdmin(context.Background())
	require.NoError(t, err)

	router := chi.NewRouter()
	activation.NewAPI(svc, logger).AppendRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	cli := adminclient.New(srv.URL+"/", nil)

	fees, err := cli.ListFees(ctx)
	require.NoError(t, err)
	require.Len(t, fees, 4)

	update := models.FeeUpdate{
		VAT:              models.FormText("7.5"),
		CardActivation:   models.FormText("20"),
		CardMaintenance:  models.FormText("1.25"),
		SecureConnection: models.FormText("0"),
	}

	_, err = cli.UpdateFees(ctx, update)
	var apiErr *adminclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "No token provided", apiErr.Message)

	_, err = cli.Login(ctx, "admin", "wrong")
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	token, err := cli.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, token, cli.Token)

	fees, err = cli.UpdateFees(ctx, update)
	require.NoError(t, err)
	require.Len(t, fees, 4)
	require.True(t, fees[0].Price.Equal(decimal.RequireFromString("7.5")))

	fees, err = cli.ListFees(ctx)
	require.NoError(t, err)
	require.Equal(t, models.LabelCardActivation, fees[1].Label)
	require.True(t, fees[1].Price.Equal(decimal.NewFromInt(20)))
}
