package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrTriggerFailed marks a failed or timed-out gate actuation. Callers treat
// it as non-fatal: the access decision stands regardless.
var ErrTriggerFailed = errors.New("gate trigger failed")

const DefaultTimeout = 3 * time.Second

// Client drives the gate controller over HTTP. Every call is bounded by the
// configured timeout so a hung device cannot stall the pipeline.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Open requests the gate to open. The device reports nothing useful beyond
// the HTTP status, so any non-2xx response counts as a failure.
func (c *Client) Open(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/open", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTriggerFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("gate_url", c.baseURL).Msg("gate trigger request failed")
		return fmt.Errorf("%w: %v", ErrTriggerFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error().Int("status", resp.StatusCode).Str("gate_url", c.baseURL).Msg("gate trigger rejected")
		return fmt.Errorf("%w: unexpected status %d", ErrTriggerFailed, resp.StatusCode)
	}

	c.log.Info().Str("gate_url", c.baseURL).Msg("gate opened")
	return nil
}
