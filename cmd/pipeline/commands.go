package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/infrastructure/cache"
	"github.com/foodlens/backend/internal/infrastructure/openfoodfacts"
	"github.com/foodlens/backend/internal/infrastructure/postgres"
	"github.com/foodlens/backend/internal/usecase"
)

func newCollectCmd(a *app) *cobra.Command {
	var total, pageSize int

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch products from Open Food Facts into the raw store",
		RunE: func(cmd *cobra.Command, args []string) error {
			off := a.cfg.OpenFoodFacts
			if !cmd.Flags().Changed("total") {
				total = off.Total
			}
			if !cmd.Flags().Changed("page-size") {
				pageSize = off.PageSize
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			client := openfoodfacts.NewClient(off.BaseURL, off.UserAgent, off.RequestsPerSecond, off.Timeout, a.logger)
			collector := usecase.NewCollectorService(client, store.Raw(), usecase.CollectorServiceConfig{
				MaxErrors:  off.MaxErrors,
				ErrorPause: off.ErrorPause,
			}, a.logger)

			stats, err := collector.Collect(cmd.Context(), usecase.CollectOptions{Total: total, PageSize: pageSize})
			if err != nil {
				return err
			}
			return a.print(stats)
		},
	}

	cmd.Flags().IntVar(&total, "total", 0, "number of new products to collect (default from config)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "products per page (default from config)")
	return cmd
}

func newEnrichCmd(a *app) *cobra.Command {
	var limit, workers int

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich raw products that have no outcome yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Enrichment.Limit
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Enrichment.Workers
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			enricher := usecase.NewEnrichmentService(store.Raw(), store.Outcomes(), a.logger)
			stats, err := enricher.EnrichAll(cmd.Context(), usecase.EnrichOptions{Limit: limit, Workers: workers})
			if err != nil {
				return err
			}
			return a.print(stats)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum raw records to scan, 0 for all")
	cmd.Flags().IntVar(&workers, "workers", 1, "concurrent enrichment workers")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	var limit int
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load successful enrichment outcomes into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Load.Limit
			}

			if migrateFirst {
				if err := postgres.MigrateUp(a.cfg.Database.URL, a.logger); err != nil {
					return err
				}
			}

			contract, err := usecase.NewRecordContract()
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			db, repo, err := a.openCatalog(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			loader := usecase.NewLoaderService(store.Outcomes(), repo, contract, a.logger)
			stats, err := loader.Run(ctx, usecase.LoadOptions{Limit: limit})
			if err != nil {
				return err
			}

			if stats.Transferred > 0 {
				a.invalidateStats(cmd, repo)
			}
			return a.print(stats)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum success outcomes to read, 0 for all")
	cmd.Flags().BoolVar(&migrateFirst, "migrate", true, "apply schema migrations before loading")
	return cmd
}

// invalidateStats drops the API's cached stats. Only a shared (redis) cache
// is reachable from here.
func (a *app) invalidateStats(cmd *cobra.Command, reader domain.CatalogReader) {
	if a.cfg.Cache.Type != "redis" {
		return
	}
	shared, err := cache.New(cmd.Context(), a.cfg.Cache.Type, a.cfg.Cache.RedisURL, a.cfg.Cache.Prefix, a.logger)
	if err != nil {
		a.logger.Warn("stats cache not invalidated", zap.Error(err))
		return
	}
	defer shared.Close()

	catalog := usecase.NewCatalogService(reader, shared, usecase.CatalogServiceConfig{CacheTTL: a.cfg.Cache.TTL}, a.logger)
	if err := catalog.InvalidateStats(cmd.Context()); err != nil {
		a.logger.Warn("stats cache not invalidated", zap.Error(err))
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or with --down, revert) the catalog schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if down {
				return postgres.MigrateDown(a.cfg.Database.URL, a.logger)
			}
			return postgres.MigrateUp(a.cfg.Database.URL, a.logger)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "revert all migrations")
	return cmd
}

// pipelineStats is the stats command output
type pipelineStats struct {
	RawRecords int                  `json:"raw_records"`
	Outcomes   domain.OutcomeStats  `json:"outcomes"`
	Catalog    *domain.CatalogStats `json:"catalog,omitempty"`
}

func newStatsCmd(a *app) *cobra.Command {
	var withCatalog bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show raw and enrichment counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var out pipelineStats
			if out.RawRecords, err = store.Raw().Count(ctx); err != nil {
				return fmt.Errorf("count raw records: %w", err)
			}
			enricher := usecase.NewEnrichmentService(store.Raw(), store.Outcomes(), a.logger)
			if out.Outcomes, err = enricher.OutcomeStats(ctx); err != nil {
				return err
			}

			if withCatalog {
				db, repo, err := a.openCatalog(ctx)
				if err != nil {
					return errors.Join(errors.New("catalog stats unavailable"), err)
				}
				defer db.Close()
				if out.Catalog, err = repo.Stats(ctx); err != nil {
					return err
				}
			}
			return a.print(out)
		},
	}

	cmd.Flags().BoolVar(&withCatalog, "catalog", false, "include relational catalog stats")
	return cmd
}
