package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alovak/card-activation/activation"
	"github.com/alovak/card-activation/activation/models"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

func TestBuildUpdate(t *testing.T) {
	update, err := buildUpdate("7.5", " 10 ", "0", "1.25")
	require.NoError(t, err)
	require.Equal(t, models.FormText("10"), update.CardActivation)
	require.Equal(t, models.FormText("1.25"), update.SecureConnection)

	_, err = buildUpdate("7.5", "", "0", "")
	require.ErrorContains(t, err, "--card-activation, --secure-connection")

	_, err = buildUpdate("7.5", "ten", "0", "1")
	require.ErrorContains(t, err, "not a number")
}

func TestPrintFees(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	printFees(&buf, []*models.FeeLineItem{
		{Label: models.LabelVAT, Price: decimal.RequireFromString("7.5"), UpdatedAt: at},
		{Label: models.LabelCardActivation, Price: decimal.Zero, UpdatedAt: at},
	})

	out := buf.String()
	require.Contains(t, out, "LABEL")
	require.Contains(t, out, "VAT (value added tax)")
	require.Contains(t, out, "7.50")
	require.Contains(t, out, "0.00")
	require.Contains(t, out, "2024-05-01T10:00:00Z")
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := activation.DefaultConfig()
	cfg.JWTSecret = "feectl-test"
	cfg.BcryptCost = bcrypt.MinCost

	svc := activation.NewService(activation.NewRepository(), cfg, logger)
	_, err := svc.SeedAdmin(context.Background())
	require.NoError(t, err)

	router := chi.NewRouter()
	activation.NewAPI(svc, logger).AppendRoutes(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	out, err := runCmd(t, "list", "--server", srv.URL)
	require.NoError(t, err)
	require.Contains(t, out, "Card maintenance")

	_, err = runCmd(t, "update", "--server", srv.URL, "-p", "wrong",
		"--vat", "1", "--card-activation", "2", "--card-maintenance", "3", "--secure-connection", "4")
	require.ErrorContains(t, err, "Invalid credentials")

	out, err = runCmd(t, "update", "--server", srv.URL, "-u", "admin", "-p", "admin123",
		"--vat", "1", "--card-activation", "2.5", "--card-maintenance", "3", "--secure-connection", "4")
	require.NoError(t, err)
	require.Contains(t, out, "2.50")
	require.Contains(t, out, "Fees updated.")
}
