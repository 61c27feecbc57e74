package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/spf13/cobra"
	"github.com/tordrt/dbdesigner"
	"github.com/tordrt/dbdesigner/internal/config"
	"github.com/tordrt/dbdesigner/internal/schema"
	"github.com/tordrt/dbdesigner/internal/server"
	"github.com/tordrt/dbdesigner/internal/store"
)

var (
	designFile   string
	memoryStore  bool
	allowOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editing API for the canvas",
	Long: `Serve holds one editing session and exposes it under /api/v1. Saved diagrams
are kept in the library under --store-dir unless --memory is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := newLogger()

		initial := schema.New(cfg.DatabaseName, cfg.Engine)
		if designFile != "" {
			if initial, err = dbdesigner.LoadFile(designFile); err != nil {
				return err
			}
		}
		session, err := newSession(cfg, initial, log)
		if err != nil {
			return err
		}

		dir := cfg.StoreDir
		if memoryStore {
			dir = ""
		}
		st, err := openStore(dir, log)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := server.New(server.Config{
			Logger:       log,
			Session:      session,
			Store:        st,
			AllowOrigins: allowOrigins,
		})
		return srv.Run(cmd.Context(), cfg.Listen)
	},
}

func openStore(dir string, log logger.Logger) (*store.Store, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create store directory %s", dir)
		}
	}
	return store.Open(store.Config{Logger: debugLogger(log), Dir: dir})
}

func init() {
	serveCmd.Flags().String(config.KeyListen, "", "Address to listen on (default: 127.0.0.1:8080)")
	serveCmd.Flags().StringVar(&designFile, "file", "", "Design document to start from")
	serveCmd.Flags().BoolVar(&memoryStore, "memory", false, "Keep saved diagrams in memory only")
	serveCmd.Flags().StringSliceVar(&allowOrigins, "allow-origin", nil, "Origins allowed by CORS (default: any)")

	rootCmd.AddCommand(serveCmd)
}
