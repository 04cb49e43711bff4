// jobs runs the scheduled batch work of the catalog: press-through,
// catalog synchronization, generic status recompute, and the changed
// products report. One subcommand per job; each prints a human-readable
// summary and exits non-zero when anything failed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	catalogmetrics "sdgcatalog/internal/catalog/metrics"
	"sdgcatalog/internal/catalog/notify"
	"sdgcatalog/internal/catalog/service/pressthrough"
	"sdgcatalog/internal/catalog/service/status"
	"sdgcatalog/internal/catalog/service/syncer"
	"sdgcatalog/internal/catalog/service/versioning"
	pgstore "sdgcatalog/internal/catalog/store/postgres"
	"sdgcatalog/internal/platform/config"
	"sdgcatalog/internal/platform/logger"
	"sdgcatalog/internal/platform/postgres"
	"sdgcatalog/pkg/platform/tx"
	"sdgcatalog/pkg/requestcontext"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open postgres: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	orgStore := pgstore.NewOrganizations(db)
	catalogStore := pgstore.NewCatalogs(db)
	genericStore := pgstore.NewGenerics(db)
	productStore := pgstore.NewProducts(db)
	versionStore := pgstore.NewVersions(db)
	outbox := notify.NewOutboxStore(db)
	catMetrics := catalogmetrics.New()

	engine := versioning.NewEngine(
		productStore, versionStore, catalogStore, orgStore,
		versioning.WithTxRunner(tx.SQLRunner{DB: db}),
		versioning.WithLogger(log),
		versioning.WithMetrics(catMetrics),
		versioning.WithSink(outbox),
	)

	// One consistent "today" for the whole run.
	ctx := requestcontext.WithTime(context.Background(), time.Now())

	var exitCode int
	switch os.Args[1] {
	case "pressthrough":
		propagator := pressthrough.NewPropagator(
			productStore, versionStore, catalogStore, orgStore, engine,
			pressthrough.WithLogger(log),
			pressthrough.WithMetrics(catMetrics),
		)
		result, err := propagator.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "press-through failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("press-through: %d reference products due, %d specific products updated\n",
			result.ReferencesDue, result.SpecificsUpdated)
		for _, f := range result.Failures {
			fmt.Printf("  FAILED product %s (reference %s): %v\n", f.ProductID, f.ReferenceID, f.Err)
		}
		if len(result.Failures) > 0 {
			exitCode = 1
		}

	case "sync":
		synchronizer := syncer.NewSynchronizer(
			orgStore, catalogStore, productStore, versionStore,
			syncer.WithTxRunner(tx.SQLRunner{DB: db}),
			syncer.WithLogger(log),
			syncer.WithMetrics(catMetrics),
		)
		result, err := synchronizer.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "catalog sync failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("catalog sync: %d catalogs created, %d products created, %d texts backfilled, %d concepts auto-synced\n",
			result.CatalogsCreated, result.ProductsCreated, result.TextsBackfilled, result.AutoSynced)
		for _, f := range result.Failures {
			fmt.Printf("  FAILED catalog %s product %s: %v\n", f.CatalogID, f.ProductID, f.Err)
		}
		if len(result.Failures) > 0 {
			exitCode = 1
		}

	case "status":
		recomputer := status.NewRecomputer(genericStore, productStore, versionStore, log)
		result, err := recomputer.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status recompute failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("status recompute: %d generic products examined, %d changed\n",
			result.Examined, result.Changed)
		for _, f := range result.Failures {
			fmt.Printf("  FAILED generic product %s: %v\n", f.GenericProductID, f.Err)
		}
		if len(result.Failures) > 0 {
			exitCode = 1
		}

	case "changed-report":
		fs := flag.NewFlagSet("changed-report", flag.ExitOnError)
		days := fs.Int("days", 7, "report versions changed in the last N days")
		_ = fs.Parse(os.Args[2:])

		audience := notify.NewAudienceQuery(orgStore, catalogStore, productStore, versionStore)
		since := time.Now().AddDate(0, 0, -*days)
		changed, err := audience.ChangedSince(ctx, since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "changed report failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("changed products since %s: %d\n", since.Format("2006-01-02"), len(changed))
		for _, c := range changed {
			recipients, err := audience.Recipients(ctx, c.OrganizationID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  FAILED recipients for organization %s: %v\n", c.OrganizationID, err)
				exitCode = 1
				continue
			}
			fmt.Printf("  product %s version %d (organization %s, %d recipients)\n",
				c.Product.ID, c.Version.Version, c.OrganizationID, len(recipients))
		}

	default:
		usage()
		os.Exit(2)
	}

	os.Exit(exitCode)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: jobs <command>

commands:
  pressthrough    propagate due reference texts onto opted-in specific products
  sync            create missing specific catalogs and shadow products
  status          recompute generic product lifecycle statuses
  changed-report  list recently changed versions with their mail audience`)
}
