// Package config loads process-wide configuration from the environment,
// the way the teacher client loads its apiKey/apiSecret and Options at
// construction time, generalized into a single typed struct parsed once
// at process startup.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// localDevAudience is the sentinel TASKS_OIDC_AUDIENCE value that flips
// the dispatcher and ingress into the shared-secret fallback described
// in spec §4.I.
const localDevAudience = "local-dev"

// TasksBackend selects the Task Dispatcher backend.
type TasksBackend string

const (
	TasksBackendInline     TasksBackend = "inline"
	TasksBackendHTTP       TasksBackend = "http"
	TasksBackendCloudTasks TasksBackend = "cloud_tasks"
)

// Config is the process-wide configuration cell. It is built once via
// Load and passed down by dependency injection; no package keeps its
// own copy of the environment.
type Config struct {
	Env string `env:"APP_ENV" envDefault:"production"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	ContactHashSecret string `env:"CONTACT_HASH_SECRET,required"`
	ContactRefsKeyHex string `env:"CONTACT_REFS_KEY,required"`

	TasksBackend         TasksBackend `env:"TASKS_BACKEND" envDefault:"inline"`
	TasksOIDCAudience    string       `env:"TASKS_OIDC_AUDIENCE"`
	TasksOIDCServiceAcct string       `env:"TASKS_OIDC_SERVICE_ACCOUNT"`
	TasksSharedSecret    string       `env:"TASKS_SHARED_SECRET"`
	WorkerBaseURL        string       `env:"WORKER_BASE_URL"`
	GCPProject           string       `env:"GCP_PROJECT"`
	GCPLocation          string       `env:"GCP_LOCATION" envDefault:"us-central1"`
	CloudTasksQueue      string       `env:"CLOUD_TASKS_QUEUE"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	EvolutionWebhookSecret string `env:"EVOLUTION_WEBHOOK_SECRET"`
	MetaWebhookSecret      string `env:"META_WEBHOOK_SECRET"`
	MetaPhoneNumberID      string `env:"META_PHONE_NUMBER_ID"`
	MetaAccessToken        string `env:"META_ACCESS_TOKEN"`
	MetaGraphAPIVersion    string `env:"META_GRAPH_API_VERSION" envDefault:"v18.0"`

	OIDCIssuer  string `env:"OIDC_ISSUER"`
	OIDCJWKSURL string `env:"OIDC_JWKS_URL"`

	HTTPPort   int `env:"PORT" envDefault:"8080"`
	WorkerPort int `env:"WORKER_PORT" envDefault:"8081"`
}

// IsLocalDev reports whether the process is explicitly configured for
// local development, which is the only audience that unlocks the
// shared-secret fallback and allows unsigned WhatsApp webhooks.
func (c *Config) IsLocalDev() bool {
	return c.Env == "development" || c.TasksOIDCAudience == localDevAudience
}

// Load reads configuration from the environment (and from a local .env
// file, best-effort, in development) and validates the invariants that
// spec §7 treats as fatal startup conditions.
func Load() (*Config, error) {
	_ = godotenv.Load() // best effort; absence is not an error

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, apperr.ConfigurationMissing(fmt.Sprintf("failed to parse environment: %v", err))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.ContactHashSecret) == 0 {
		return apperr.ConfigurationMissing("CONTACT_HASH_SECRET is required")
	}
	if len(c.ContactRefsKeyHex) != 64 {
		return apperr.ConfigurationMissing("CONTACT_REFS_KEY must be 32 bytes hex (64 hex chars)")
	}
	if !c.IsLocalDev() && c.TasksOIDCAudience == "" {
		return apperr.ConfigurationMissing("TASKS_OIDC_AUDIENCE is required outside local development")
	}
	if c.TasksBackend == TasksBackendCloudTasks && (c.GCPProject == "" || c.CloudTasksQueue == "") {
		return apperr.ConfigurationMissing("GCP_PROJECT and CLOUD_TASKS_QUEUE are required for the cloud_tasks backend")
	}
	return nil
}

// MustLoad is used by cmd/ entrypoints where a configuration failure is
// always fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}
