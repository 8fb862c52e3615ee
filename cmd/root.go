// Package cmd defines the siteaudit command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JakeFAU/siteaudit/internal/config"
)

// newRootCmd creates the root command. Each invocation gets its own Viper instance so
// flag bindings never leak between runs.
func newRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "siteaudit",
		Short: "Crawl a site and audit its SEO and best practices.",
		Long: `siteaudit crawls one or more pages of a website, checks heading structure,
metadata, redirects and links on every page, detects duplicate titles, descriptions
and content across pages, and writes a report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (YAML, JSON or TOML)")
	cmd.AddCommand(newScanCmd(v))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "siteaudit: %v\n", err)
		os.Exit(1)
	}
}

func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}
