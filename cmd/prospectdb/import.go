package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadforge/prospectdb/internal/usecase/importer"
)

var importRequired []string

var importCmd = &cobra.Command{
	Use:   "import <collection> <file.csv>",
	Short: "Bulk-import a CSV file into a collection",
	Long: `Import reads a CSV file whose first row names the fields and inserts
one document per row. Rows whose identifier already exists are skipped;
rows missing a required field are reported and dropped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, path := args[0], args[1]

		ctx := cmd.Context()
		s, err := newSetup(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		svc := importer.New(s.store, s.cfg.Limits.MaxImportRows)
		summary, err := svc.ImportCSV(ctx, collection, f, importRequired)
		if err != nil {
			return err
		}

		fmt.Printf("inserted %d, skipped %d, failed %d\n", summary.Inserted, summary.Skipped, summary.Failed)
		for _, rowErr := range summary.Errors {
			fmt.Fprintf(os.Stderr, "line %d: %s\n", rowErr.Line, rowErr.Reason)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringSliceVar(&importRequired, "required", nil, "fields every row must carry")
}
