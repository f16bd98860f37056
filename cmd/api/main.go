// Command api runs the HTTP API process: webhook ingress for the three
// external providers, and the bearer-authenticated catalog/payments
// endpoints spec §6 defines.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"

	"github.com/marcioluisms/hotelly2-sub001/internal/config"
	"github.com/marcioluisms/hotelly2-sub001/internal/hashing"
	"github.com/marcioluisms/hotelly2-sub001/internal/httpapi"
	"github.com/marcioluisms/hotelly2-sub001/internal/logging"
	"github.com/marcioluisms/hotelly2-sub001/internal/oidcauth"
	"github.com/marcioluisms/hotelly2-sub001/internal/payment/stripeclient"
	"github.com/marcioluisms/hotelly2-sub001/internal/pii"
	"github.com/marcioluisms/hotelly2-sub001/internal/store"
	"github.com/marcioluisms/hotelly2-sub001/internal/tasks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	log := logging.New("api", cfg.IsLocalDev())

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database pool")
	}
	defer st.Close()

	vault, err := pii.New(st.Pool, cfg.ContactRefsKeyHex)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build pii vault")
	}

	jwksCache := oidcauth.NewJWKSCache(cfg.OIDCJWKSURL)
	verifier := oidcauth.NewVerifier(jwksCache, cfg.OIDCIssuer, cfg.TasksOIDCAudience)

	dispatcher, err := buildDispatcher(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build task dispatcher")
	}

	deps := httpapi.APIDeps{
		Pool:       st.Pool,
		Config:     cfg,
		Logger:     log,
		Hasher:     hashing.NewHasher(cfg.ContactHashSecret),
		Vault:      vault,
		Dispatcher: dispatcher,
		Provider:   stripeclient.New(cfg.StripeSecretKey),
		Verifier:   verifier,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpapi.NewAPIRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.HTTPPort).Msg("api listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("api server stopped")
	}
}

// buildDispatcher selects the Task Dispatcher backend named by
// TASKS_BACKEND (spec §4.I).
func buildDispatcher(ctx context.Context, cfg *config.Config) (tasks.Dispatcher, error) {
	switch cfg.TasksBackend {
	case config.TasksBackendInline:
		return tasks.NewInlineDispatcher(), nil
	case config.TasksBackendHTTP:
		minter := buildMinter(cfg)
		return tasks.NewHTTPDispatcher(cfg.WorkerBaseURL, cfg.TasksOIDCAudience, minter), nil
	case config.TasksBackendCloudTasks:
		client, err := cloudtasks.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		return tasks.NewCloudTasksDispatcher(client, cfg.GCPProject, cfg.GCPLocation, cfg.CloudTasksQueue,
			cfg.WorkerBaseURL, cfg.TasksOIDCAudience, cfg.TasksOIDCServiceAcct), nil
	default:
		return tasks.NewInlineDispatcher(), nil
	}
}

func buildMinter(cfg *config.Config) oidcauth.TokenMinter {
	if oidcauth.IsLocalDevAudience(cfg.TasksOIDCAudience) {
		return &oidcauth.SharedSecretMinter{Secret: cfg.TasksSharedSecret}
	}
	return &oidcauth.GoogleIDTokenMinter{ServiceAccountEmail: cfg.TasksOIDCServiceAcct}
}
