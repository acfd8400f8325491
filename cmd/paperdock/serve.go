package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/paperdock/paperdock/internal/embedding"
	"github.com/paperdock/paperdock/internal/semantic"
	"github.com/paperdock/paperdock/internal/web"
)

var serveAddr string

func init() {
	_ = godotenv.Load()

	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the paper catalog over HTTP",
	Long: `Serve the harvested catalog and similarity search over HTTP.

The similarity routes need a built index; without one the server still
starts, and those routes report the backend as unavailable.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	db := mustOpenStore(cfg)
	defer db.Close()

	var idx *semantic.Index
	var provider embedding.Provider
	idx, err := semantic.Load(cfg.DataDir)
	switch {
	case err == nil:
		provider = newProvider(cfg)
	case errors.Is(err, semantic.ErrIndexNotFound):
		fmt.Fprintln(os.Stderr, "warning: no semantic index; similarity routes disabled until 'paperdock index build'")
		idx = nil
	default:
		exitWithError(ExitError, "loading index: %v", err)
	}

	addr := cfg.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           web.NewServer(db, idx, provider).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := interruptibleContext()
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "listening on %s\n", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitWithError(ExitError, "server: %v", err)
	}
	return nil
}
