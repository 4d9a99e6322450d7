package heimdall

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/fanstake/squad-ledger/internal/domain/access"
	"github.com/fanstake/squad-ledger/internal/platform/logging"
	"github.com/fanstake/squad-ledger/internal/platform/resilience"
	"github.com/fanstake/squad-ledger/internal/usecase"
)

// Client introspects bearer tokens against the heimdall account service and
// maps them to ledger identities. The ledger itself never sees raw
// credentials, only verified principals.
type Client struct {
	httpClient     *http.Client
	introspectURL  string
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
}

func NewClient(httpClient *http.Client, baseURL, introspectPath string, breakerCfg resilience.CircuitBreakerConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	normalized := resilience.NormalizeCircuitBreakerConfig(breakerCfg)

	return &Client{
		httpClient:     httpClient,
		introspectURL:  buildURL(baseURL, introspectPath),
		breaker:        resilience.NewCircuitBreaker(normalized.FailureThreshold, normalized.OpenTimeout, normalized.HalfOpenMaxReq),
		circuitEnabled: normalized.Enabled,
		logger:         logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (access.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return access.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "heimdall circuit breaker rejected request", "state", c.breaker.State())
			return access.Principal{}, fmt.Errorf("%w: account service unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	principal, err := c.introspect(ctx, token)
	if c.circuitEnabled {
		// Authorization denials are valid answers, not dependency failures.
		if err == nil || crerr.Is(err, usecase.ErrUnauthorized) {
			c.breaker.RecordSuccess()
		} else {
			c.breaker.RecordFailure()
		}
	}
	return principal, err
}

func (c *Client) introspect(ctx context.Context, token string) (access.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return access.Principal{}, crerr.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return access.Principal{}, crerr.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return access.Principal{}, crerr.Wrap(err, "request introspection")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return access.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return access.Principal{}, crerr.Wrap(err, "read introspect response")
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "heimdall introspection non-200", "status_code", resp.StatusCode)
		return access.Principal{}, crerr.Newf("introspection failed with status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return access.Principal{}, crerr.Wrap(err, "unmarshal introspect response")
	}

	if !decoded.Active {
		return access.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}

	addr := access.Normalize(decoded.Address)
	if addr.IsZero() {
		return access.Principal{}, crerr.New("invalid introspect response: address is empty")
	}

	return access.Principal{
		Address: addr,
		Email:   decoded.Email,
	}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active  bool   `json:"active"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}
