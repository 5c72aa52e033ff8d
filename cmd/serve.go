package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/jsphweid/progdex/analysis"
	"github.com/jsphweid/progdex/logging"
	"github.com/jsphweid/progdex/metadata"
	"github.com/jsphweid/progdex/server"
	"github.com/jsphweid/progdex/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		return serve(cmd.Context())
	},
}

// NewServer wires the HTTP server from the loaded config. The returned
// close function releases the store.
func NewServer() (*server.Server, func() error, error) {
	opts, err := analysis.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts.Logger = logging.GetGlobalLogger()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	s := server.New(opts, st, logging.GetGlobalLogger())

	client, err := metadata.FromConfig(cfg.Metadata)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if client != nil {
		s.Metadata = client
	}
	return s, st.Close, nil
}

func serve(ctx context.Context) error {
	s, closeStore, err := NewServer()
	if err != nil {
		return err
	}
	defer closeStore()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Handler(cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.Info("listening", logging.Fields{"addr": cfg.Server.Addr, "store": cfg.Store.Path})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serving")
	}
	return nil
}
