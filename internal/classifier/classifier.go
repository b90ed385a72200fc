// Package classifier calls the remote conduct prediction model. Every
// failure is folded into a Result carrying ConductUnknown; callers never see
// an error return.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/fleet-trips/internal/config"
	"github.com/nurpe/fleet-trips/internal/metrics"
	"github.com/nurpe/fleet-trips/internal/model"
)

const maxResponseBytes = 1 << 20

var (
	ErrBadStatus    = errors.New("classifier returned non-success status")
	ErrMissingLabel = errors.New("classifier response has no conduct label")
	ErrUnknownLabel = errors.New("classifier returned unrecognized label")
)

type Result struct {
	Label model.Conduct
	Err   error
}

func (r Result) OK() bool {
	return r.Err == nil
}

func ok(label model.Conduct) Result {
	return Result{Label: label}
}

func failed(err error) Result {
	return Result{Label: model.ConductUnknown, Err: err}
}

type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	log      zerolog.Logger
}

func New(cfg config.ClassifierConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultClassifierTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = config.DefaultClassifierURL
	}
	return &Client{
		endpoint: base + "/predict",
		timeout:  timeout,
		http:     &http.Client{Timeout: timeout},
		log:      log.With().Str("component", "classifier").Logger(),
	}
}

type predictResponse struct {
	Conduct *string `json:"conduct"`
	Label   *string `json:"label"`
}

// Classify posts payload unchanged to the prediction endpoint. An empty
// payload is sent as an empty JSON object.
func (c *Client) Classify(ctx context.Context, payload json.RawMessage) Result {
	start := time.Now()
	res := c.classify(ctx, payload)
	metrics.ClassificationLatency.Observe(time.Since(start).Seconds())

	if !res.OK() {
		metrics.Classifications.WithLabelValues("error").Inc()
		c.log.Warn().Err(res.Err).Str("endpoint", c.endpoint).Msg("conduct classification failed, using UNKNOWN")
		return res
	}
	metrics.Classifications.WithLabelValues(string(res.Label)).Inc()
	return res
}

func (c *Client) classify(ctx context.Context, payload json.RawMessage) Result {
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = json.RawMessage(`{}`)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return failed(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return failed(fmt.Errorf("post predict: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return failed(fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode))
	}

	var body predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return failed(fmt.Errorf("decode response: %w", err))
	}

	raw := body.Conduct
	if raw == nil {
		raw = body.Label
	}
	if raw == nil {
		return failed(ErrMissingLabel)
	}

	label, err := ParseLabel(*raw)
	if err != nil {
		return failed(err)
	}
	return ok(label)
}

// ParseLabel resolves a model label. Only NORMAL and AGGRESSIVE are valid
// model outputs; AGRESIVO is the label older model builds emit.
func ParseLabel(raw string) (model.Conduct, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "NORMAL":
		return model.ConductNormal, nil
	case "AGGRESSIVE", "AGRESIVO":
		return model.ConductAggressive, nil
	default:
		return model.ConductUnknown, fmt.Errorf("%w: %q", ErrUnknownLabel, raw)
	}
}
