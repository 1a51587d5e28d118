// Package main provides the catalog maintenance CLI: export, registry,
// validation, daily case preview and autocomplete checks.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"daily-diagnosis-bot/internal/catalog"
	"daily-diagnosis-bot/internal/game/daily"
	"daily-diagnosis-bot/internal/matcher"
)

const dateLayout = "2006-01-02"

var (
	catalogPath string
	outPath     string

	dailyDate string

	lexiconPath  string
	suggestLimit int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Inspect and convert the diagnosis case catalog",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&catalogPath, "in", "", "catalog export file (default: bundled catalog)")

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newRegistryCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newDailyCmd())
	rootCmd.AddCommand(newSuggestCmd())

	return rootCmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog in export format",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	repo, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	return withOutput(cmd, func(w io.Writer) error {
		return catalog.Encode(w, repo.AllCases())
	})
}

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Write the diagnosis registry, one entry per distinct diagnosis",
		Args:  cobra.NoArgs,
		RunE:  runRegistryCmd,
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default: stdout)")
	return cmd
}

func runRegistryCmd(cmd *cobra.Command, _ []string) error {
	repo, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	return withOutput(cmd, func(w io.Writer) error {
		return catalog.EncodeRegistry(w, repo.AllCases())
	})
}

// withOutput runs write against --out, or the command's stdout when unset.
func withOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if outPath == "" {
		return write(cmd.OutOrStdout())
	}
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
	return nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report data-quality issues in the catalog",
		Args:  cobra.NoArgs,
		RunE:  runValidateCmd,
	}
}

func runValidateCmd(cmd *cobra.Command, _ []string) error {
	repo, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	cases := repo.AllCases()
	issues := catalog.Validate(cases)
	out := cmd.OutOrStdout()
	for _, issue := range issues {
		fmt.Fprintln(out, issue.String())
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d issues in %d cases", len(issues), len(cases))
	}
	fmt.Fprintf(out, "%d cases, no issues\n", len(cases))
	return nil
}

func newDailyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show the daily case for a date",
		Args:  cobra.NoArgs,
		RunE:  runDailyCmd,
	}
	cmd.Flags().StringVar(&dailyDate, "date", "", "date as YYYY-MM-DD (default: today)")
	return cmd
}

func runDailyCmd(cmd *cobra.Command, _ []string) error {
	date := time.Now()
	if dailyDate != "" {
		parsed, err := time.Parse(dateLayout, dailyDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dailyDate)
		}
		date = parsed
	}

	repo, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	c, ok := daily.Case(date, repo.AllCases())
	if !ok {
		return fmt.Errorf("catalog is empty")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", date.Format(dateLayout), c.ID, c.CanonicalName, c.Category)
	return nil
}

func newSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "List autocomplete suggestions for a partial diagnosis",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSuggestCmd,
	}
	cmd.Flags().StringVar(&lexiconPath, "lexicon", "", "lexicon file (default: bundled lexicon)")
	cmd.Flags().IntVar(&suggestLimit, "limit", matcher.DefaultSuggestionLimit, "maximum suggestions")
	return cmd
}

func runSuggestCmd(cmd *cobra.Command, args []string) error {
	repo, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	lex, err := catalog.OpenLexicon(lexiconPath, repo)
	if err != nil {
		return err
	}
	for _, term := range matcher.Suggestions(strings.Join(args, " "), lex, suggestLimit) {
		fmt.Fprintln(cmd.OutOrStdout(), term)
	}
	return nil
}
