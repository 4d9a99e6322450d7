package treasury

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fanstake/squad-ledger/internal/domain/access"
	"github.com/fanstake/squad-ledger/internal/platform/logging"
	"github.com/fanstake/squad-ledger/internal/platform/resilience"
)

var errTransient = crerr.New("treasury transient failure")

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	Retries        int
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the external custody service that actually moves funds.
// Credits are idempotent on the supplied key, so a retry after an aborted
// ledger operation cannot double-pay.
type Client struct {
	http           *fasthttp.Client
	baseURL        string
	apiKey         string
	timeout        time.Duration
	retries        int
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
}

func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		timeout:        timeout,
		retries:        cfg.Retries,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger,
	}
}

type creditRequest struct {
	To             string `json:"to"`
	AmountWei      string `json:"amount_wei"`
	IdempotencyKey string `json:"idempotency_key"`
}

type creditResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Credit asks the custody service to transfer amountWei to the recipient.
// Zero-amount credits are acknowledged locally without a remote call.
func (c *Client) Credit(ctx context.Context, to access.Address, amountWei uint64, idempotencyKey string) error {
	if to.IsZero() {
		return crerr.New("credit recipient is the null identity")
	}
	if amountWei == 0 {
		return nil
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return crerr.New("idempotency key is required")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "treasury circuit breaker rejected credit", "state", c.breaker.State())
			return fmt.Errorf("treasury is temporarily unavailable: %w", err)
		}
	}

	payload := creditRequest{
		To:             to.String(),
		AmountWei:      fmt.Sprintf("%d", amountWei),
		IdempotencyKey: idempotencyKey,
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		c.recordResult(false)
		return crerr.Wrap(err, "marshal credit request")
	}

	creditURL := c.baseURL + "/v1/credits"

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("treasury.credit_url", creditURL),
			attribute.String("treasury.recipient", to.String()),
			attribute.String("treasury.idempotency_key", idempotencyKey),
		)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			c.recordResult(false)
			return crerr.Wrap(err, "credit aborted")
		}

		lastErr = c.postCredit(creditURL, body)
		if lastErr == nil {
			c.recordResult(true)
			c.logger.InfoContext(ctx, "treasury credit accepted",
				"recipient", to,
				"amount_wei", amountWei,
				"idempotency_key", idempotencyKey,
				"attempt", attempt+1,
			)
			return nil
		}
		if !crerr.Is(lastErr, errTransient) {
			break
		}
		c.logger.WarnContext(ctx, "treasury credit retrying",
			"attempt", attempt+1,
			"error", lastErr,
		)
	}

	c.recordResult(false)
	return crerr.Wrapf(lastErr, "credit %d wei to %s", amountWei, to)
}

func (c *Client) postCredit(creditURL string, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(creditURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(body)
	req.SetBody(buf.B)

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return crerr.WithDetail(crerr.Wrap(errTransient, err.Error()), "transport failure")
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		var decoded creditResponse
		if err := sonic.Unmarshal(resp.Body(), &decoded); err != nil {
			return crerr.Wrap(err, "unmarshal credit response")
		}
		if !decoded.Accepted {
			return crerr.Newf("credit rejected: %s", decoded.Reason)
		}
		return nil
	case status == fasthttp.StatusTooManyRequests || status >= 500:
		return crerr.Wrapf(errTransient, "treasury returned status %d", status)
	default:
		return crerr.Newf("treasury returned status %d", status)
	}
}

func (c *Client) recordResult(success bool) {
	if !c.circuitEnabled {
		return
	}
	if success {
		c.breaker.RecordSuccess()
	} else {
		c.breaker.RecordFailure()
	}
}
