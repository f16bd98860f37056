// Command worker runs the task-handler HTTP process: every route
// authenticated by middleware.TaskAuth, never reachable by a guest or
// staff bearer token (spec §4.I, §6).
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
	"github.com/marcioluisms/hotelly2-sub001/internal/messaging/outbound"
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
	log := logging.New("worker", cfg.IsLocalDev())

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

	deps := httpapi.WorkerDeps{
		Pool:       st.Pool,
		Config:     cfg,
		Logger:     log,
		Hasher:     hashing.NewHasher(cfg.ContactHashSecret),
		Vault:      vault,
		Dispatcher: dispatcher,
		Provider:   stripeclient.New(cfg.StripeSecretKey),
		Sender:     outbound.NewMetaSender(cfg.MetaPhoneNumberID, cfg.MetaAccessToken, cfg.MetaGraphAPIVersion),
		Verifier:   verifier,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerPort),
		Handler:           httpapi.NewWorkerRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.WorkerPort).Msg("worker listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("worker server stopped")
	}
}

// buildDispatcher selects the Task Dispatcher backend named by
// TASKS_BACKEND. The worker needs a dispatcher of its own: the
// whatsapp_handle_message handler schedules the hold's expiration task
// once it creates a hold (spec §4.F step 5).
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
