package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"crimelense/internal/analysis"
	"crimelense/internal/auth"
	"crimelense/internal/compare"
	"crimelense/internal/config"
	"crimelense/internal/guard"
	"crimelense/internal/hotspots"
	"crimelense/internal/live"
	"crimelense/internal/persist"
	"crimelense/internal/prediction"
	"crimelense/internal/remote"
	"crimelense/internal/saferoute"
	"crimelense/internal/session"
	"crimelense/internal/views"
	"crimelense/migrations"
	badgerstore "crimelense/pkg/badger"
	"crimelense/pkg/db"
	"crimelense/pkg/jwt"
	"crimelense/pkg/kafka"
	rredis "crimelense/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. JWT secret ──
	if err := jwt.Init(cfg.JWTSecret, cfg.TokenLifetime); err != nil {
		log.Fatal(err)
	}

	// ── 2. PostgreSQL (postgres store or credential directory) ──
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.Connect(ctx, cfg.DatabaseURL, cfg.ConnectAttempts)
		if err != nil {
			log.Fatal(err)
		}
		defer database.Close()

		if err := database.RunMigrations(ctx, migrations.FS); err != nil {
			log.Fatal("migrations failed:", err)
		}
	}

	// ── 3. Redis (redis store or hotspot index) ──
	var redisClient *rredis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = rredis.NewClient(cfg.RedisAddr, cfg.ConnectAttempts)
		if err != nil {
			log.Fatal(err)
		}
		defer redisClient.Close()
	}

	// ── 4. Session store ──
	port, closePort, err := openPort(cfg, database, redisClient)
	if err != nil {
		log.Fatal(err)
	}
	defer closePort()

	store := session.NewStore(port)
	store.LoadOnStartup(ctx)

	var authn auth.Authenticator = auth.Open{}
	var reg auth.Registrar = auth.Open{}
	if cfg.AuthMode == config.AuthDirectory {
		dir := auth.NewDirectory(database.Pool)
		authn, reg = dir, dir
	}

	// ── 5. Analysis services ──
	predictionLocal := &prediction.LocalService{Latency: cfg.PredictionLatency}
	routeLocal := &saferoute.LocalService{Latency: cfg.RouteLatency}
	compareLocal := &compare.LocalService{Latency: cfg.CompareLatency}

	var (
		predictionSvc analysis.Service[prediction.Params, prediction.Result] = predictionLocal
		routeSvc      analysis.Service[saferoute.Params, saferoute.Result]   = routeLocal
		compareSvc    analysis.Service[compare.Params, compare.Result]       = compareLocal
		worker        *remote.Worker
	)

	if cfg.AnalysisBackend == config.AnalysisKafka {
		kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
		defer kafkaClient.Close()

		if err := kafkaClient.EnsureTopics(ctx,
			kafka.TopicAnalysisRequested,
			kafka.TopicAnalysisCompleted,
		); err != nil {
			log.Fatal(err)
		}

		broker := remote.NewBroker(kafkaClient)
		broker.Start(ctx, kafkaClient, "crimelense-replies-"+uuid.New().String())
		predictionSvc = remote.NewClient[prediction.Params, prediction.Result](broker, prediction.Name)
		routeSvc = remote.NewClient[saferoute.Params, saferoute.Result](broker, saferoute.Name)
		compareSvc = remote.NewClient[compare.Params, compare.Result](broker, compare.Name)

		if cfg.RunWorker {
			worker = remote.NewWorker(kafkaClient, cfg.WorkerConcurrency, cfg.AnalysisTimeout)
			remote.Register(worker, prediction.Name, predictionLocal)
			remote.Register(worker, saferoute.Name, routeLocal)
			remote.Register(worker, compare.Name, compareLocal)
			worker.Start(ctx, kafkaClient, "crimelense-analysis-workers")
		}
	}

	predictionScreens := prediction.NewScreens(predictionSvc, cfg.AnalysisTimeout, cfg.ScreenLimit)
	routeScreens := saferoute.NewScreens(routeSvc, cfg.AnalysisTimeout, cfg.ScreenLimit)
	compareScreens := compare.NewScreens(compareSvc, cfg.AnalysisTimeout, cfg.ScreenLimit)

	// ── 6. Hotspots ──
	var spotStore hotspots.Store = hotspots.NewMemoryStore()
	if cfg.HotspotBackend == "redis" {
		spotStore = hotspots.NewRedisStore(redisClient)
	}
	spotSvc := hotspots.NewService(spotStore, hotspots.DefaultOptions())
	if cfg.SeedHotspots {
		if n, err := spotSvc.SeedDefaults(ctx); err != nil {
			log.Printf("[hotspots] seeding failed: %v", err)
		} else if n > 0 {
			log.Printf("[hotspots] seeded %d hotspots", n)
		}
	}

	// ── 7. WebSocket hub ──
	wsHub := live.NewHub()

	// ── 8. HTTP router ──
	g := guard.New(store, guard.LoginPath, views.ProtectedPrefixes...)
	spotHandler := hotspots.NewHandler(spotSvc)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(jwt.OptionalAuth)
	r.Use(g.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"crimelense"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	views.NewHandler(store, g).Mount(r)
	r.Mount("/admin/hotspots", spotHandler.AdminRoutes())

	r.Route("/api", func(r chi.Router) {
		r.Mount("/session", session.NewHandler(store, authn, reg).Routes())
		r.Mount("/prediction", prediction.Routes(predictionScreens, wsHub))
		r.Mount("/safe-route", saferoute.Routes(routeScreens, wsHub))
		r.Mount("/compare", compare.Routes(compareScreens, wsHub))
		r.Mount("/heatmap", spotHandler.PublicRoutes())
	})
	r.Mount("/ws", wsHub.Routes())

	// ── 9. Serve until signalled ──
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Printf("crimelense listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ── 10. Graceful shutdown ──
	eg.Go(func() error {
		<-egCtx.Done()
		log.Println("shutting down...")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutCtx)

		wsHub.Close()
		predictionScreens.CloseAll()
		routeScreens.CloseAll()
		compareScreens.CloseAll()
		if worker != nil {
			worker.Wait()
		}
		return err
	})

	if err := eg.Wait(); err != nil {
		log.Fatal(err)
	}
}

// openPort builds the persistence port for the configured backend and
// returns a function releasing it.
func openPort(cfg *config.Config, database *db.DB, redisClient *rredis.Client) (persist.Port, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBadger:
		bdb, err := badgerstore.Open(badgerstore.DefaultConfig(cfg.BadgerPath))
		if err != nil {
			return nil, nil, err
		}
		return persist.NewBadger(bdb, cfg.SessionKey), func() {
			if err := bdb.Close(); err != nil {
				log.Printf("[badger] close: %v", err)
			}
		}, nil
	case config.StoreRedis:
		return persist.NewRedis(redisClient, cfg.SessionKey), func() {}, nil
	case config.StorePostgres:
		return persist.NewPostgres(database.Pool, cfg.SessionKey), func() {}, nil
	case config.StoreMemory:
		log.Println("[session] using in-memory store; sessions will not survive a restart")
		return persist.NewMemory(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
