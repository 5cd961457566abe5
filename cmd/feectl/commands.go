package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alovak/card-activation/activation/models"
	"github.com/alovak/card-activation/internal/adminclient"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	server  string
	timeout time.Duration
}

func (o *globalOptions) client() *adminclient.Client {
	return adminclient.New(o.server, &http.Client{Timeout: o.timeout})
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "feectl",
		Short:         "Inspect and update card activation fees",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("FEECTL_SERVER", "http://127.0.0.1:3001"), "activation service base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	root.AddCommand(listCmd(opts))
	root.AddCommand(updateCmd(opts))

	return root
}

func listCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the current fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fees, err := opts.client().ListFees(cmd.Context())
			if err != nil {
				return err
			}
			printFees(cmd.OutOrStdout(), fees)
			return nil
		},
	}
}

func updateCmd(opts *globalOptions) *cobra.Command {
	var (
		username, password string

		vat, activation, maintenance, secure string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace all four fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := buildUpdate(vat, activation, maintenance, secure)
			if err != nil {
				return err
			}
			if password == "" {
				return fmt.Errorf("--password is required to update fees")
			}

			cli := opts.client()
			if _, err := cli.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fees, err := cli.UpdateFees(cmd.Context(), update)
			if err != nil {
				return err
			}

			printFees(cmd.OutOrStdout(), fees)
			fmt.Fprintln(cmd.OutOrStdout(), "Fees updated.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", envOr("ADMIN_USERNAME", "admin"), "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", os.Getenv("ADMIN_PASSWORD"), "admin password (defaults to $ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&vat, "vat", "", "VAT amount")
	cmd.Flags().StringVar(&activation, "card-activation", "", "card activation fee")
	cmd.Flags().StringVar(&maintenance, "card-maintenance", "", "card maintenance fee")
	cmd.Flags().StringVar(&secure, "secure-connection", "", "3D secure connection fee")

	return cmd
}

// buildUpdate checks the four amounts locally before anything is sent.
func buildUpdate(vat, activation, maintenance, secure string) (models.FeeUpdate, error) {
	names := []string{"--vat", "--card-activation", "--card-maintenance", "--secure-connection"}
	values := []string{vat, activation, maintenance, secure}

	var missing []string
	for i, v := range values {
		v = strings.TrimSpace(v)
		values[i] = v
		if v == "" {
			missing = append(missing, names[i])
			continue
		}
		if _, err := decimal.NewFromString(v); err != nil {
			return models.FeeUpdate{}, fmt.Errorf("%s: %q is not a number", names[i], v)
		}
	}
	if len(missing) > 0 {
		return models.FeeUpdate{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}

	return models.FeeUpdate{
		VAT:              models.FormText(values[0]),
		CardActivation:   models.FormText(values[1]),
		CardMaintenance:  models.FormText(values[2]),
		SecureConnection: models.FormText(values[3]),
	}, nil
}

func printFees(w io.Writer, fees []*models.FeeLineItem) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tPRICE\tUPDATED")
	for _, f := range fees {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Label, f.Price.StringFixed(2), f.UpdatedAt.Format(time.RFC3339))
	}
	tw.Flush()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
