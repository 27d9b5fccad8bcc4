// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/litreview/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve starts the HTTP API. POST /api/reviews streams a review as
Server-Sent Events; finished reviews are stored and served from
/api/reviews. POST /api/annotate checks the citations of a document.

SIGINT or SIGTERM cancels in-flight reviews and shuts down gracefully.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reviewer, err := newReviewer(appCfg)
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(logger)}

	if !appCfg.Store.Disabled {
		st, err := openStore(appCfg)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, server.WithStore(st))
	}

	annotator, err := newAnnotator(appCfg)
	if err != nil {
		return err
	}
	opts = append(opts, server.WithAnnotator(annotator))
	if rt := detectRuntime(ctx, appCfg); rt != nil {
		logger.Infof("converting PDF and DOCX uploads with %s", rt.Name())
		opts = append(opts, server.WithRuntime(rt))
	}

	srv := server.New(appCfg.Server, reviewer, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Infof("received shutdown signal")
		}
		return nil
	})
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
