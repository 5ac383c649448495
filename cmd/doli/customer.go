package main

import (
	"context"
	"fmt"

	"github.com/Cyrix126/doli-client-api-go/pkg/dolibarr"
	"github.com/spf13/cobra"
)

func newCustomerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Read and write thirdparties",
	}
	cmd.AddCommand(newCustomerGetCmd(), newCustomerUpdateCmd())
	return cmd
}

func newCustomerGetCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "get [<id>]",
		Short: "Print a customer by id, or by --email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (email == "") == (len(args) == 0) {
				return fmt.Errorf("give either a customer id or --email")
			}
			var id int64
			if len(args) == 1 {
				parsed, err := parseID(args[0])
				if err != nil {
					return err
				}
				id = parsed
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			var customer *dolibarr.CustomerData
			if email != "" {
				customer, err = c.GetCustomerByEmail(ctx(cmd), email)
			} else {
				customer, err = c.GetCustomer(ctx(cmd), id)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), customer)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "look the customer up by email")
	return cmd
}

func newCustomerUpdateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a customer record from JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var data dolibarr.CustomerData
			if err := readRecord(cmd, file, &data); err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			return c.UpdateCustomer(ctx(cmd), id, &data)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON customer file, - for stdin")
	return cmd
}

type documentLister func(ctx context.Context, customerID int64) ([]dolibarr.Document, error)

func newDocumentsCmd(use, short string, pick func(*dolibarr.Client) documentLister) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <customer-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			docs, err := pick(c)(ctx(cmd), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), docs)
		},
	}
}
