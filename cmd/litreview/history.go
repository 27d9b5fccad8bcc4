// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/render"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse, export, and delete saved reviews",
	Long: `History works on the review store at <store.dir>/reviews.db, the same
database "serve" and "review --save" write to.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reviews, newest first",
	Long: `List shows saved reviews. --query runs a full-text search over topic and
content, ranked by relevance.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved review",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a saved review with its papers",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved review",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	listCmd.Flags().String("query", "", "full-text search over topic and content")
	listCmd.Flags().String("status", "", "filter by status: completed, failed, cancelled")
	listCmd.Flags().Int("limit", store.DefaultListLimit, "maximum number of reviews")
	listCmd.Flags().Bool("json", false, "output as JSON")

	showCmd.Flags().Bool("html", false, "render the review as a standalone HTML page")

	exportCmd.Flags().String("format", "yaml", "export format: yaml, json, or csl (bibliography only)")

	historyCmd.AddCommand(listCmd, showCmd, exportCmd, deleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	st, err := openStore(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := st.List(cmd.Context(), store.ListOptions{
		Query:  query,
		Status: types.ReviewStatus(status),
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tPAPERS\tTOPIC")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Status, s.PaperCount, s.Topic)
	}
	return tw.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	asHTML, _ := cmd.Flags().GetBool("html")

	st, err := openStore(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rev, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if asHTML {
		return render.Page(os.Stdout, rev)
	}

	fmt.Fprintf(os.Stderr, "%s  %s  %d papers  %s\n", rev.ID, rev.Status, rev.PaperCount(), rev.CreatedAt.Local().Format(time.DateTime))
	if rev.Error != "" {
		fmt.Fprintf(os.Stderr, "error: %s\n", rev.Error)
	}
	fmt.Println(rev.Content)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	st, err := openStore(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	switch format {
	case "yaml", "yml":
		return st.ExportYAML(cmd.Context(), args[0], os.Stdout)
	case "json":
		return st.ExportJSON(cmd.Context(), args[0], os.Stdout)
	case "csl":
		rev, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render.CSL(os.Stdout, rev.Papers)
	default:
		return fmt.Errorf("unknown format %q (want yaml, json, or csl)", format)
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	logger.Infof("deleted review %s", args[0])
	return nil
}
