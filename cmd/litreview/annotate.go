// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/annotate"
	"github.com/pdiddy/litreview/internal/convert"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <file>",
	Short: "Check the citations of a document",
	Long: `Annotate parses inline citations and the References section of a
document, then asks the model to flag unsupported claims and citation
problems. Text and Markdown files are read directly; PDF and DOCX need
docker or podman with the markitdown image.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().Bool("json", false, "output the result as JSON")

	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	path := args[0]
	ctx := cmd.Context()

	text, err := convert.File(ctx, path, detectRuntime(ctx, appCfg))
	if err != nil {
		return err
	}

	annotator, err := newAnnotator(appCfg)
	if err != nil {
		return err
	}
	res, err := annotator.Annotate(ctx, annotate.Document{Name: filepath.Base(path), Text: text})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("%s: %d citations, %d bibliography entries, %d unresolved\n",
		res.Name, len(res.Citations), len(res.Bibliography), len(res.Unresolved))
	if res.Truncated {
		fmt.Println("(document truncated before annotation)")
	}
	for _, c := range res.Unresolved {
		fmt.Printf("  unresolved [%s]: %s\n", c.Key, c.Context)
	}
	for _, a := range res.Annotations {
		fmt.Printf("\n[%s] %s\n  %q\n", a.Severity, a.Issue, a.Quote)
		if a.Suggestion != "" {
			fmt.Printf("  suggestion: %s\n", a.Suggestion)
		}
	}
	return nil
}
