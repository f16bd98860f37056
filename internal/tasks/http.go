package tasks

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/0x9ef/clientx"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// TokenMinter is the narrow seam HTTPDispatcher needs from oidcauth,
// kept as a local interface so this package does not import oidcauth's
// concrete types it does not use.
type TokenMinter interface {
	Mint(ctx context.Context, audience string) (headerName, headerValue string, err error)
}

// workerAck is the minimal response shape every /tasks/... endpoint
// returns on success.
type workerAck struct {
	Status string `json:"status"`
}

// HTTPDispatcher POSTs task envelopes to the worker over a clientx.API
// configured with WithRetry(2, ...) on transport errors and 5xx
// responses. No rate limit and no per-request timeout are set on it;
// a call is bounded only by ctx.
type HTTPDispatcher struct {
	api      *clientx.API
	audience string
	minter   TokenMinter
}

// NewHTTPDispatcher builds an HTTPDispatcher targeting baseURL, minting
// bearer credentials scoped to audience via minter.
func NewHTTPDispatcher(baseURL, audience string, minter TokenMinter) *HTTPDispatcher {
	api := clientx.NewAPI(
		clientx.WithBaseURL(baseURL),
		clientx.WithRetry(2, 200*time.Millisecond, 2*time.Second, nil,
			func(resp *http.Response, err error) bool {
				return err != nil || (resp != nil && resp.StatusCode >= 500)
			},
		),
	)
	return &HTTPDispatcher{api: api, audience: audience, minter: minter}
}

func (d *HTTPDispatcher) Enqueue(ctx context.Context, taskID string, name Name, payload any, urlPath string, at time.Time) error {
	env, err := BuildEnvelope(taskID, name, payload)
	if err != nil {
		return err
	}

	// §5: scheduled execution is only honoured by the cloud_tasks
	// backend; http sends immediately regardless of `at`.
	headerName, headerValue, err := d.minter.Mint(ctx, d.audience)
	if err != nil {
		return apperr.Wrap(apperr.KindProviderTransient, "oidc_mint_failed", "failed to mint task auth credential", err)
	}

	headers := http.Header{
		"Content-Type":     []string{"application/json"},
		headerName:         []string{headerValue},
		"X-Correlation-Id": []string{taskID},
	}

	_, err = clientx.NewRequestBuilder[Envelope, workerAck](d.api).
		Post(urlPath, env, clientx.WithRequestHeaders(headers)).
		WithErrorDecode(func(resp *http.Response) (bool, error) {
			if resp.StatusCode >= 500 {
				return true, apperr.New(apperr.KindProviderTransient, "worker_5xx", fmt.Sprintf("worker returned %d", resp.StatusCode))
			}
			if resp.StatusCode >= 400 {
				return true, apperr.New(apperr.KindProviderPermanent, "worker_4xx", fmt.Sprintf("worker returned %d", resp.StatusCode))
			}
			return false, nil
		}).
		DoWithDecode(ctx)
	if err != nil {
		return err
	}
	return nil
}

var _ Dispatcher = (*HTTPDispatcher)(nil)
