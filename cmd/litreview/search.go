// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Query one search provider directly",
	Long: `Search runs a single provider query without the agent, which is useful
for checking what the model will see. Results are normalized papers; the
limit is clamped to 20.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("source", string(types.SourceSemanticScholar), "provider: semantic_scholar or arxiv")
	searchCmd.Flags().Int("limit", search.DefaultLimit, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	src := types.Source(source)
	if !src.Valid() {
		return fmt.Errorf("unknown source %q (want semantic_scholar or arxiv)", source)
	}

	var provider search.Provider
	for _, p := range newProviders(appCfg) {
		if p.Source() == src {
			provider = p
		}
	}

	papers, err := provider.Search(cmd.Context(), strings.Join(args, " "), search.ClampLimit(limit))
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tYEAR\tCITES\tTITLE")
	for _, p := range papers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, optInt(p.Year), optInt(p.CitationCount), p.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d results from %s\n", len(papers), src)
	return nil
}

func optInt(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprint(*n)
}
