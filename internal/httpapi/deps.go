package httpapi

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/marcioluisms/hotelly2-sub001/internal/config"
	"github.com/marcioluisms/hotelly2-sub001/internal/hashing"
	"github.com/marcioluisms/hotelly2-sub001/internal/oidcauth"
	"github.com/marcioluisms/hotelly2-sub001/internal/payment/broker"
	"github.com/marcioluisms/hotelly2-sub001/internal/pii"
	"github.com/marcioluisms/hotelly2-sub001/internal/tasks"
)

// APIDeps are the dependencies the api process's router closes over.
// One APIDeps is built at startup in cmd/api and handed to NewAPIRouter.
type APIDeps struct {
	Pool       *pgxpool.Pool
	Config     *config.Config
	Logger     zerolog.Logger
	Hasher     *hashing.Hasher
	Vault      *pii.Vault
	Dispatcher tasks.Dispatcher
	Provider   broker.SessionProvider
	Verifier   *oidcauth.Verifier
}

// WorkerDeps are the dependencies the worker process's router closes
// over.
type WorkerDeps struct {
	Pool       *pgxpool.Pool
	Config     *config.Config
	Logger     zerolog.Logger
	Hasher     *hashing.Hasher
	Vault      *pii.Vault
	Dispatcher tasks.Dispatcher
	Provider   broker.SessionProvider
	Sender     Sender
	Verifier   *oidcauth.Verifier
}

// Sender is the narrow outbound-delivery seam WorkerDeps needs; both
// messaging/outbound.MetaSender and test doubles implement it.
type Sender interface {
	Send(ctx context.Context, to, text, correlationID string) error
}
