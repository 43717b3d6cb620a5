package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	cartapp "github.com/wyfcoding/storefront/internal/cart/application"
	cartdomain "github.com/wyfcoding/storefront/internal/cart/domain"
	"github.com/wyfcoding/storefront/internal/cart/infrastructure/messaging"
	"github.com/wyfcoding/storefront/internal/cart/infrastructure/persistence/memory"
	catalogapp "github.com/wyfcoding/storefront/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	catalogcache "github.com/wyfcoding/storefront/internal/catalog/infrastructure/cache"
	"github.com/wyfcoding/storefront/internal/catalog/infrastructure/client"
	"github.com/wyfcoding/storefront/internal/storefront/application"
	grpc_server "github.com/wyfcoding/storefront/internal/storefront/interfaces/grpc"
	http_server "github.com/wyfcoding/storefront/internal/storefront/interfaces/http"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/grpcclient"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/mq"
	"github.com/wyfcoding/storefront/pkg/ratelimit"
	"github.com/wyfcoding/storefront/pkg/trace"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath  string
		healthcheck bool
	)
	flag.StringVar(&configPath, "config", config.GetEnv("APP_CONFIG", "configs/storefront/config.toml"), "path to config file")
	flag.BoolVar(&healthcheck, "healthcheck", false, "probe the local gRPC health service and exit")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}

	if healthcheck {
		os.Exit(probe(cfg))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting storefront", "version", cfg.Version, "environment", cfg.Environment)
	if err := run(ctx, cfg); err != nil {
		logger.Error(ctx, "Storefront exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Server exiting")
}

func run(ctx context.Context, cfg *config.Config) error {
	// 3. Tracing
	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracer(ctx, cfg.ServiceName, cfg.Tracing.CollectorEndpoint, cfg.Tracing.SamplingRate)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn(sctx, "Tracer shutdown failed", "error", err)
			}
		}()
	}

	// 4. Metrics
	m := metrics.New(cfg.ServiceName)
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := m.Register(registry); err != nil {
			return err
		}
	}

	// 5. Catalog
	queryCache, closeCache, err := newQueryCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	source := client.NewFakeStoreClient(client.Config{
		BaseURL:      cfg.Catalog.BaseURL,
		ProductsPath: cfg.Catalog.ProductsPath,
		Timeout:      time.Duration(cfg.Catalog.Timeout) * time.Second,
	})
	queryService := catalogapp.NewCatalogQueryService(source, queryCache, time.Duration(cfg.Catalog.CacheTTL)*time.Second,
		catalogapp.FetchObserverFunc(func(_ context.Context, ev catalogdomain.CatalogFetchedEvent) {
			m.RecordCatalogFetch(ev.Source, ev.Success, ev.Duration)
			if ev.CacheUsed {
				m.RecordCacheLookup(ev.Source == catalogdomain.SourceCache)
			}
		}),
	)
	catalogService := catalogapp.NewCatalogApplicationService(queryService)

	// 6. Cart
	publisher, closePublisher, err := newEventPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()
	cartService := cartapp.NewCartApplicationService(memory.NewCartRepository(), publisher, m)

	// 7. Sessions
	idle := time.Duration(cfg.Session.IdleTimeout) * time.Second
	sessions := application.NewRegistry(catalogService, cartService, application.RegistryConfig{
		IdleTimeout:   idle,
		SweepInterval: time.Duration(cfg.Session.SweepInterval) * time.Second,
	}, m)
	storefront := application.NewStorefrontService(cartService)

	// 8. gRPC
	grpcSrv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			middleware.GRPCRecoveryInterceptor(),
			middleware.GRPCLoggingInterceptor(),
		),
	)
	health := grpc_server.NewHealthReporter(grpcSrv, cfg.ServiceName)
	queryService.AddObserver(health)
	reflection.Register(grpcSrv)

	// 9. HTTP
	limiter := ratelimit.NewMemoryRateLimiter()
	gin.SetMode(cfg.HTTP.Mode)
	r := gin.New()
	r.Use(
		middleware.GinRecoveryMiddleware(),
		otelgin.Middleware(cfg.ServiceName),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(m),
		middleware.RateLimitMiddleware(limiter, cfg.RateLimit),
	)
	http_server.NewStorefrontHandler(sessions, storefront, http_server.CookieConfig{
		Name:   cfg.Session.CookieName,
		MaxAge: idle,
	}).RegisterRoutes(r)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 10. Start
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "Starting HTTP server", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	if cfg.GRPC.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen grpc %s: %w", addr, err)
		}
		g.Go(func() error {
			logger.Info(gctx, "Starting gRPC server", "addr", addr)
			return grpcSrv.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			health.Shutdown()
			grpcSrv.GracefulStop()
			return nil
		})
	}

	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		return sessions.Start(gctx)
	})
	if cfg.RateLimit.Enabled {
		g.Go(func() error {
			return limiter.Start(gctx, time.Duration(cfg.Session.SweepInterval)*time.Second)
		})
	}

	// 11. Graceful Shutdown
	err = g.Wait()
	logger.Info(context.WithoutCancel(ctx), "Shutting down server...")
	return err
}

// probe 容器健康检查：本地 gRPC 健康服务返回 SERVING 时退出码为 0
func probe(cfg *config.Config) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := grpcclient.NewClient(grpcclient.ClientConfig{
		Target:         fmt.Sprintf("127.0.0.1:%d", cfg.GRPC.Port),
		ConnTimeout:    2,
		RequestTimeout: 3,
	})
	if err != nil {
		logger.Error(ctx, "Health probe failed", "error", err)
		return 1
	}
	defer conn.Close()

	st, err := grpcclient.CheckHealth(ctx, conn, cfg.ServiceName)
	if err != nil {
		logger.Error(ctx, "Health probe failed", "error", err)
		return 1
	}
	if st != healthpb.HealthCheckResponse_SERVING {
		logger.Warn(ctx, "Service not serving", "status", st.String())
		return 1
	}
	return 0
}

// newQueryCache 按 catalog.cache_driver 创建目录查询缓存
func newQueryCache(ctx context.Context, cfg *config.Config) (catalogdomain.QueryCache, func(), error) {
	switch cfg.Catalog.CacheDriver {
	case "memory":
		c, err := catalogcache.NewMemoryCache(ctx, time.Duration(cfg.Catalog.CacheTTL)*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	case "redis":
		rc, err := cache.New(ctx, cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return catalogcache.NewRedisCache(rc, cfg.ServiceName+":catalog:"), func() { _ = rc.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

// newEventPublisher 按 events.driver 创建购物车事件发布者
func newEventPublisher(cfg *config.Config) (cartdomain.EventPublisher, func(), error) {
	switch cfg.Events.Driver {
	case "kafka":
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Events.Kafka.Brokers,
			MaxRetries:   cfg.Events.Kafka.MaxRetries,
			RetryBackoff: cfg.Events.Kafka.RetryBackoff,
		})
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewKafkaPublisher(producer, cfg.Events.Topic), func() { _ = producer.Close() }, nil
	case "amqp":
		producer, err := mq.NewAMQPProducer(cfg.Events.AMQP.URL)
		if err != nil {
			return nil, nil, err
		}
		return messaging.NewAMQPPublisher(producer, cfg.Events.Topic), func() { _ = producer.Close() }, nil
	default:
		return messaging.NewLogPublisher(), func() {}, nil
	}
}
