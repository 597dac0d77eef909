package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/freebies-japan/api/internal/config"
	"github.com/freebies-japan/api/internal/http/health"
	"github.com/freebies-japan/api/internal/http/v1/routes"
	"github.com/freebies-japan/api/internal/platform/auth"
	"github.com/freebies-japan/api/internal/platform/email"
	"github.com/freebies-japan/api/internal/platform/firebase"
	applog "github.com/freebies-japan/api/internal/platform/logging"
	"github.com/freebies-japan/api/internal/platform/metrics"
	appmiddleware "github.com/freebies-japan/api/internal/platform/middleware"
	"github.com/freebies-japan/api/internal/platform/respond"
	"github.com/freebies-japan/api/internal/scheduler"
	"github.com/freebies-japan/api/internal/service/draw"
	"github.com/freebies-japan/api/internal/service/item"
	"github.com/freebies-japan/api/internal/service/notification"
	"github.com/freebies-japan/api/internal/service/payment"
	"github.com/freebies-japan/api/internal/service/profile"
	"github.com/freebies-japan/api/internal/service/request"
	"github.com/freebies-japan/api/internal/service/upload"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const (
	apiPrefix = "/v1"
	docsPath  = "/api-docs"
)

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		applog.LogError(context.Background(), "invalid configuration", err)
		os.Exit(1)
	}

	ctx := context.Background()
	clients, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID:                    cfg.ProjectID,
		StorageBucket:                cfg.StorageBucket,
		GoogleApplicationCredentials: cfg.Credentials,
	})
	if err != nil {
		applog.LogError(ctx, "firebase init failed", err)
		os.Exit(1)
	}
	defer func() {
		if err := clients.Close(); err != nil {
			applog.LogError(context.Background(), "firebase close error", err)
		}
	}()

	svc, items, notifier := newServices(cfg, clients)

	var sched *scheduler.Scheduler
	if cfg.Lottery.Schedule != "" {
		sched, err = scheduler.New(items, svc.Draws, cfg.Lottery.Schedule, cfg.Lottery.Timezone, applog.Logger())
		if err != nil {
			applog.LogError(ctx, "scheduler init failed", err)
			os.Exit(1)
		}
		sched.Start()
		applog.LogInfo(ctx, "lottery scheduler started",
			zap.String("schedule", cfg.Lottery.Schedule), zap.String("timezone", cfg.Lottery.Timezone))
	}

	router, _ := newRouter(cfg, svc, firestoreCheck(clients.Firestore))
	srv := newServer(cfg.Port, router)

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		os.Exit(1)
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			applog.LogError(shutdownCtx, "scheduler stop error", err)
		}
	}
	// Queued emails are sent after the last handler and draw have returned.
	if err := notifier.Close(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "notification drain error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
}

// newServices wires the Firestore stores, notifications and storage signing.
// The undecorated item store is returned for the scheduler's due-item scan,
// and the dispatcher so shutdown can drain it.
func newServices(cfg *config.Config, clients *firebase.Clients) (routes.Services, *item.FirestoreStore, *notification.Dispatcher) {
	var sender email.Sender = email.LogSender{}
	if cfg.Email.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From)
	}

	profiles := profile.NewFirestoreStore(clients.Firestore)
	notifier := notification.NewDispatcher(notification.NewEmailNotifier(profiles, sender, notification.EmailConfig{
		AdminEmail: cfg.Email.AdminEmail,
		AppURL:     cfg.Email.AppURL,
	}), notification.DefaultWorkers, notification.DefaultQueueSize)

	items := item.NewFirestoreStore(clients.Firestore)

	var signer upload.Signer
	if clients.Bucket != nil {
		signer = clients.Bucket
	}

	return routes.Services{
		Verifier: auth.NewFirebaseVerifier(clients.Auth),
		Profiles: profiles,
		Items:    item.WithNotifications(items, notifier),
		Requests: request.NewFirestoreStore(clients.Firestore),
		Draws:    draw.NewService(draw.NewFirestoreStore(clients.Firestore), notifier, cfg.Lottery.DefaultWinners),
		Payments: payment.WithEvents(payment.NewFirestoreStore(clients.Firestore), notifier),
		Uploads:  upload.NewSignedURLService(signer, cfg.UploadTTL),
	}, items, notifier
}

// newRouter builds the HTTP handler: plain health and metrics endpoints at
// the root and the huma API under apiPrefix.
func newRouter(cfg *config.Config, svc routes.Services, checks ...health.Check) (chi.Router, huma.API) {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(apiPrefix+docsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.CORSAllowedOrigins...),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		// Without a trusted proxy, clients can spoof their IP address.
		chimiddleware.RealIP,
		// RequestSize limits request body size to prevent memory exhaustion from large payloads.
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		applog.RequestLogger(),
		applog.AccessLogger(),
		respond.Recoverer(),
		metrics.Middleware,
	)

	router.Get("/health", health.Handler(checks...))
	router.Handle("/metrics", metrics.Handler())

	var api huma.API
	router.Route(apiPrefix, func(r chi.Router) {
		api = humachi.New(r, newAPIConfig())
		routes.Register(api, svc)
	})
	return router, api
}

func newAPIConfig() huma.Config {
	cfg := huma.DefaultConfig("Freebies Japan API", Version)
	cfg.DocsPath = docsPath
	// Link and Location headers are built from the first server URL.
	cfg.Servers = []*huma.Server{{URL: apiPrefix}}
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Firebase ID token",
		},
	}
	cfg.OnAddOperation = append(cfg.OnAddOperation, addCBORContent)
	return cfg
}

// addCBORContent mirrors every JSON request and response body as CBOR in the
// OpenAPI document.
func addCBORContent(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}

func firestoreCheck(client *firestore.Client) health.Check {
	return health.Check{
		Name: "firestore",
		Fn: func(ctx context.Context) error {
			_, err := client.Collection(item.Collection).Limit(1).Documents(ctx).GetAll()
			return err
		},
	}
}

func newServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}
