package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Cyrix126/doli-client-api-go/internal/app"
	"github.com/Cyrix126/doli-client-api-go/internal/config"
	"github.com/Cyrix126/doli-client-api-go/internal/logger"
	"github.com/Cyrix126/doli-client-api-go/pkg/dolibarr"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var configFile string

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "doli: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "doli",
		Short:         "Command line access to the Dolibarr REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (overrides CONFIG_FILE)")

	rootCmd.AddCommand(newProductCmd())
	rootCmd.AddCommand(newCustomerCmd())
	rootCmd.AddCommand(newDocumentsCmd("orders", "List the orders of a customer", func(c *dolibarr.Client) documentLister { return c.ListOrders }))
	rootCmd.AddCommand(newDocumentsCmd("invoices", "List the invoices of a customer", func(c *dolibarr.Client) documentLister { return c.ListInvoices }))

	return rootCmd
}

// newClient loads configuration and builds an API client. Logs go to stderr.
func newClient(cmd *cobra.Command) (*dolibarr.Client, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.InitTo(cfg, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.NewClient(ctx(cmd), cfg, nil, log)
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readRecord decodes a JSON document from path, or from stdin when path is
// empty or "-".
func readRecord(cmd *cobra.Command, path string, v any) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}
