package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/auth"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/cache"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/catalog"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/config"
	h "github.com/ArfatChowdhury/nemo-e-commerce-app/internal/http"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/imagehost"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/pricing"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/publisher"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/repository"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/internal/service"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/circuitbreaker"
	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "storefront",
		Usage: "cart, wishlist and checkout API for the Nemo storefront",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "HTTP port (overrides HTTP_PORT)"},
			&cli.StringFlag{Name: "log-level", Usage: "log level (overrides LOG_LEVEL)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply the order history migrations and exit",
				Action: migrateDB,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("storefront exited with error")
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("port") {
		cfg.HTTPPort = c.String("port")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog
	catalogClient := catalog.NewClient(catalog.ClientConfig{
		BaseURL: cfg.CatalogBaseURL,
		Timeout: cfg.CatalogTimeout,
		Breaker: circuitbreaker.DefaultConfig(),
	}, log)

	var cacheOpts []catalog.CacheOption
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		log.WithField("addr", cfg.RedisAddr).Info("redis ping succeeded")
		cacheOpts = append(cacheOpts, catalog.WithSnapshot(cache.NewRedisCache(redisClient, "products", cfg.CatalogCacheTTL)))
	}
	products := catalog.NewCache(catalogClient, log, cacheOpts...)

	// Orders
	brokers := cfg.Brokers()
	orders, err := openOrderStore(ctx, cfg, len(brokers) > 0, log)
	if err != nil {
		return err
	}
	defer orders.Close()

	// Auth
	secret := cfg.AuthSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("AUTH_SECRET is not set, tokens will not survive a restart")
	}
	provider, err := auth.NewMemoryProvider(secret, cfg.AuthTokenTTL)
	if err != nil {
		return err
	}

	images := imagehost.NewClient(imagehost.Config{
		UploadURL: cfg.ImageUploadURL,
		APIKey:    cfg.ImageAPIKey,
		Timeout:   cfg.RequestTimeout,
		Breaker:   circuitbreaker.DefaultConfig(),
	}, log)

	// Services
	store := service.NewStore(time.Now)
	calc := pricing.NewCalculator(cfg.ShippingFeeDecimal(), cfg.TaxRateDecimal())
	cartService := service.NewCartService(store, products, calc, log)
	wishlistService := service.NewWishlistService(store, products, log)
	checkoutService := service.NewCheckoutService(store, orders, calc, cfg.Currency, log)
	productService := service.NewProductService(catalogClient, products, log)

	router := h.NewRouter(h.RouterConfig{
		Products: h.NewProductHandler(products, productService, images, log, cfg.RequestTimeout, cfg.MaxBodySize),
		Cart:     h.NewCartHandler(cartService, log, cfg.RequestTimeout, cfg.MaxBodySize),
		Wishlist: h.NewWishlistHandler(wishlistService, log, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkoutService, log, cfg.RequestTimeout, cfg.MaxBodySize),
		Auth:     h.NewAuthHandler(provider, log, cfg.RequestTimeout, cfg.MaxBodySize),
		Provider: provider,
		Catalog:  products,
		Log:      log,
		Timeout:  cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("port", cfg.HTTPPort).Info("storefront API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		log.Info("server exited")
		return nil
	})

	g.Go(func() error {
		if err := products.Warm(gctx); err != nil {
			log.WithError(err).Warn("catalog warm-up failed, serving the snapshot or 503 until refreshed")
		}
		return nil
	})

	g.Go(func() error {
		store.RunPruner(gctx, cfg.SessionIdleTTL/4, cfg.SessionIdleTTL, func(n int) {
			log.WithField("pruned", n).Info("idle sessions pruned")
		})
		return nil
	})

	if len(brokers) > 0 {
		poller := publisher.NewOutboxPoller(orders, publisher.NewKafkaWriter(cfg.KafkaTopic, brokers...), log)
		g.Go(func() error {
			poller.Run(gctx)
			return nil
		})
	} else {
		log.Info("KAFKA_BROKERS is not set, order events are not published")
	}

	return g.Wait()
}

// openOrderStore returns the configured order history. The in-memory store
// only keeps outbox events when something will drain them.
func openOrderStore(ctx context.Context, cfg *config.Config, withOutbox bool, log logrus.FieldLogger) (repository.Store, error) {
	if cfg.OrdersStore != config.StorePostgres {
		var opts []repository.MemoryOption
		if withOutbox {
			opts = append(opts, repository.WithOutbox())
		}
		log.Info("using in-memory order history")
		return repository.NewMemoryRepository(opts...), nil
	}

	cred := cfg.DBCredentials()
	repo, err := repository.NewPostgresRepository(ctx, &cred)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := repo.RunMigrations(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.WithFields(logrus.Fields{"host": cred.Host, "db": cred.DBName}).Info("connected to postgres")
	return repo, nil
}

func migrateDB(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	cred := cfg.DBCredentials()
	repo, err := repository.NewPostgresRepository(c.Context, &cred)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations applied")
	return nil
}
