// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in the internal service
// packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"sdgcatalog/internal/catalog/cache"
	"sdgcatalog/internal/catalog/handler"
	catalogmetrics "sdgcatalog/internal/catalog/metrics"
	"sdgcatalog/internal/catalog/notify"
	productsvc "sdgcatalog/internal/catalog/service/products"
	"sdgcatalog/internal/catalog/service/versioning"
	pgstore "sdgcatalog/internal/catalog/store/postgres"
	httpapi "sdgcatalog/internal/http"
	"sdgcatalog/internal/platform/config"
	"sdgcatalog/internal/platform/httpserver"
	"sdgcatalog/internal/platform/jwtauth"
	"sdgcatalog/internal/platform/logger"
	"sdgcatalog/internal/platform/metrics"
	"sdgcatalog/internal/platform/postgres"
	platformredis "sdgcatalog/internal/platform/redis"
	"sdgcatalog/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	orgStore := pgstore.NewOrganizations(db)
	catalogStore := pgstore.NewCatalogs(db)
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

	svcOpts := []productsvc.Option{productsvc.WithLogger(log)}
	if redisClient != nil {
		svcOpts = append(svcOpts, productsvc.WithCache(cache.NewProductCache(redisClient.Client)))
	}
	service := productsvc.New(engine, productStore, versionStore, svcOpts...)

	jwtService := jwtauth.NewService(cfg.Server.JWTSigningKey, "sdgcatalog", "sdgcatalog-api")
	httpMetrics := metrics.New()
	productHandler := handler.New(service, log, httpMetrics, jwtService)

	srv := httpserver.New(cfg.Server.Addr, httpapi.NewRouter(productHandler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting sdgcatalog server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := notify.NewPublisher(cfg.Kafka.Brokers, outbox, log)
		if err != nil {
			log.Error("failed to create outbox publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		g.Go(func() error {
			err := publisher.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
