package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadforge/prospectdb/internal/usecase/seed"
)

var seedFixturePath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed empty collections from a YAML fixture file",
	Long: `Seed loads a YAML fixture mapping collection names to document lists
and inserts each list into its collection if, and only if, the collection is
still empty. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSetup(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		path := seedFixturePath
		if path == "" {
			path = s.cfg.Seed.Fixture
		}
		if path == "" {
			return fmt.Errorf("no fixture file: pass --fixture or set seed.fixture in the config")
		}

		fixture, err := seed.Load(path)
		if err != nil {
			return err
		}
		res, err := seed.Apply(ctx, s.store, fixture)
		if err != nil {
			return err
		}
		for _, name := range res.Seeded {
			fmt.Printf("seeded %s\n", name)
		}
		for _, name := range res.Skipped {
			fmt.Printf("skipped %s (not empty)\n", name)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFixturePath, "fixture", "", "fixture file (default: seed.fixture from config)")
}
