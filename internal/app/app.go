package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/nmoreira/tienda-api/internal/domain/cart"
	"github.com/nmoreira/tienda-api/internal/domain/product"
	"github.com/nmoreira/tienda-api/internal/handler"
	"github.com/nmoreira/tienda-api/internal/notify"
	"github.com/nmoreira/tienda-api/internal/storage"
	"github.com/nmoreira/tienda-api/internal/storage/file"
	"github.com/nmoreira/tienda-api/internal/storage/mongo"
	"github.com/nmoreira/tienda-api/pkg/health"
	"github.com/nmoreira/tienda-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("data_dir", cfg.DataDir))

	// MongoDB is optional. A failed connection downgrades the service to the
	// file-backed stores instead of aborting startup.
	var conn *mongo.Conn
	if cfg.MongoURI != "" {
		var err error
		conn, err = mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			lg.Warn("MongoDB unavailable, continuing with file-backed stores", zap.Error(err))
		} else {
			defer func() {
				if err := conn.Close(context.Background()); err != nil {
					lg.Error("Mongo disconnect error", zap.Error(err))
				}
			}()
			conn.Monitor(ctx, 10*time.Second)
		}
	} else {
		lg.Info("No MongoDB URI configured, using file-backed stores only")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("data-dir", time.Second, health.DirWritableCheck(cfg.DataDir))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Stores. The selectors route each operation to Mongo while the
	// connection is live and to the JSON files otherwise.
	fileProducts := file.NewProductStore(cfg.DataDir)
	fileCarts := file.NewCartStore(cfg.DataDir)

	var productStore product.Store = fileProducts
	var cartStore cart.Store = fileCarts
	if conn != nil {
		productStore = storage.NewProductSelector(mongo.NewProductStore(conn), fileProducts, conn.Live)
		cartStore = storage.NewCartSelector(mongo.NewCartStore(conn), fileCarts, conn.Live)
	}

	// Domain services.
	hub := notify.NewHub()
	catalog := product.NewService(productStore, hub)
	carts := cart.NewService(cartStore, productStore)

	// HTTP handlers.
	h := handler.New(catalog, carts, hub, cfg.PublicBaseURL)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(mux)

	wrapped := httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.LogRequests(),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      0, // streaming event responses stay open indefinitely
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: otelhttp.NewHandler(wrapped, "tienda-api",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
