package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadforge/prospectdb/internal/usecase/importer"
)

var (
	exportFields []string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <collection>",
	Short: "Export a collection as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection := args[0]

		ctx := cmd.Context()
		s, err := newSetup(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportOut, err)
			}
			defer f.Close()
			out = f
		}

		svc := importer.New(s.store, 0)
		return svc.ExportCSV(ctx, collection, exportFields, out)
	},
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportFields, "fields", nil, "columns to export (default: union of fields)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: stdout)")
}
