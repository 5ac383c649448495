package main

import (
	"errors"
	"fmt"

	"github.com/Cyrix126/doli-client-api-go/pkg/dolibarr"
	"github.com/spf13/cobra"
)

func newProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Read and write products",
	}
	cmd.AddCommand(
		newProductGetCmd(),
		newProductBarcodeCmd(),
		newProductLabelCmd(),
		newProductListCmd(),
		newProductCreateCmd(),
		newProductUpdateCmd(),
	)
	return cmd
}

// notFound rewrites ErrIDDoesNotExist into a short user message.
func notFound(id int64, err error) error {
	if errors.Is(err, dolibarr.ErrIDDoesNotExist) {
		return fmt.Errorf("product %d does not exist", id)
	}
	return err
}

func newProductGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a product as JSON",
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
			p, err := c.GetProduct(ctx(cmd), id)
			if err != nil {
				return notFound(id, err)
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newProductBarcodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "barcode <id>",
		Short: "Print the barcode of a product",
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
			barcode, ok, err := c.GetBarcode(ctx(cmd), id)
			if err != nil {
				return notFound(id, err)
			}
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "product %d has no barcode\n", id)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), barcode)
			return nil
		},
	}
}

func newProductLabelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "label <id>",
		Short: "Print the label of a product",
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
			label, err := c.GetLabel(ctx(cmd), id)
			if err != nil {
				return notFound(id, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}
}

func newProductListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every product id, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			ids, err := c.ListProductIDs(ctx(cmd))
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newProductCreateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product from JSON and print its new id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p dolibarr.Product
			if err := readRecord(cmd, file, &p); err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			id, err := c.CreateProduct(ctx(cmd), &p)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON product file, - for stdin")
	return cmd
}

func newProductUpdateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a product from JSON; the record must carry its rowid or id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var p dolibarr.Product
			if err := readRecord(cmd, file, &p); err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			return c.UpdateProduct(ctx(cmd), &p)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON product file, - for stdin")
	return cmd
}
