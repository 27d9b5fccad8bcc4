// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/litreview/internal/events"
	"github.com/pdiddy/litreview/pkg/types"
)

var reviewCmd = &cobra.Command{
	Use:   "review <topic...>",
	Short: "Run a literature review in the terminal",
	Long: `Review runs the agent on a topic. Progress (status, papers found, model
reasoning) goes to stderr and the Markdown review streams to stdout, so the
output can be redirected to a file. Ctrl-C cancels the run.

With --json every event is written to stdout as one JSON object per line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().Bool("save", false, "persist the finished review in the history store")
	reviewCmd.Flags().Bool("json", false, "write events as JSON lines")

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")
	asJSON, _ := cmd.Flags().GetBool("json")
	topic := strings.Join(args, " ")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reviewer, err := newReviewer(appCfg)
	if err != nil {
		return err
	}

	var emit events.Emitter = &terminalPrinter{out: os.Stdout, errOut: os.Stderr}
	if asJSON {
		emit = &jsonLinePrinter{enc: json.NewEncoder(os.Stdout)}
	}

	created := time.Now()
	out := reviewer.Run(ctx, topic, emit)

	if save {
		st, err := openStore(appCfg)
		if err != nil {
			return err
		}
		defer st.Close()

		rev := types.Review{
			ID:          uuid.NewString(),
			Topic:       topic,
			Status:      out.Status,
			Content:     out.Content,
			Papers:      out.Papers,
			CreatedAt:   created,
			CompletedAt: time.Now(),
		}
		if out.Err != nil {
			rev.Error = out.Err.Error()
		}
		if err := st.Save(context.WithoutCancel(ctx), rev); err != nil {
			return fmt.Errorf("saving review: %w", err)
		}
		logger.Infof("saved review %s", rev.ID)
	}

	return out.Err
}

// terminalPrinter writes the review body to out and progress to errOut.
type terminalPrinter struct {
	out    io.Writer
	errOut io.Writer
}

func (p *terminalPrinter) Emit(e events.Event) {
	switch e.Type {
	case events.TypeStatus:
		fmt.Fprintf(p.errOut, "» %s\n", e.Text())
	case events.TypePaperFound:
		d := e.Data.(events.PaperFoundData)
		year := "n.d."
		if d.Year != nil {
			year = fmt.Sprint(*d.Year)
		}
		fmt.Fprintf(p.errOut, "  + %s (%s, %s) [%s]\n", d.Title, strings.Join(d.Authors, ", "), year, d.Source)
	case events.TypeThinking:
		fmt.Fprintf(p.errOut, "  … %s\n", oneLine(e.Text()))
	case events.TypePapersCount:
		fmt.Fprintf(p.errOut, "» %d papers collected\n", e.Data.(events.CountData).Count)
	case events.TypeReviewChunk:
		fmt.Fprint(p.out, e.Text())
	case events.TypeComplete:
		fmt.Fprintln(p.out)
		fmt.Fprintf(p.errOut, "» done: %d papers\n", e.Data.(events.CompleteData).PaperCount)
	case events.TypeError:
		fmt.Fprintf(p.errOut, "error: %s\n", e.Text())
	}
}

type jsonLinePrinter struct {
	enc *json.Encoder
}

func (p *jsonLinePrinter) Emit(e events.Event) {
	p.enc.Encode(e)
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 160 {
		return string(r[:160]) + "…"
	}
	return s
}
