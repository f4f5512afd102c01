package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodlens/backend/config"
	"github.com/foodlens/backend/internal/infrastructure/docstore"
	"github.com/foodlens/backend/internal/infrastructure/logging"
	"github.com/foodlens/backend/internal/infrastructure/postgres"
)

// app carries what every subcommand needs
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Collect, enrich and load food products",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			a.cfg, a.logger, a.out = cfg, logger, cmd.OutOrStdout()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newCollectCmd(a),
		newEnrichCmd(a),
		newLoadCmd(a),
		newMigrateCmd(a),
		newStatsCmd(a),
	)
	return root
}

func (a *app) openStore() (*docstore.DB, error) {
	return docstore.Open(a.cfg.Store.Path, a.logger)
}

func (a *app) openCatalog(ctx context.Context) (*sqlx.DB, *postgres.Repository, error) {
	db, err := postgres.Open(ctx, postgres.Config{
		URL:          a.cfg.Database.URL,
		MaxOpenConns: a.cfg.Database.MaxOpenConns,
		MaxIdleConns: a.cfg.Database.MaxIdleConns,
	}, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return db, postgres.NewRepository(db, a.logger), nil
}

// print writes v as indented JSON
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
