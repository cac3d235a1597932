// Package main provides the prospectdb CLI: an HTTP API server plus
// seeding, import and export commands over the same storage backends.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadforge/prospectdb/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "prospectdb",
	Short: "prospectdb is a document store for CRM prospecting data",
	Long: `prospectdb stores schema-less CRM prospecting records (clients,
dossiers, offers, appointments) in named collections behind a small
predicate-query API, with in-memory, Redis and SQLite backends.`,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("prospectdb %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
	},
}
