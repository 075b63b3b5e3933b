package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Base URLs of the gateway environments used by the direct transport.
const (
	SandboxBaseURL    = "https://api-sandbox.asaas.com/v3"
	ProductionBaseURL = "https://api.asaas.com/v3"
)

// Credentials is an immutable snapshot of gateway access configuration.
// Reloading configuration produces a new snapshot and a new client; the
// snapshot held by in-flight operations is never mutated.
type Credentials struct {
	APIKey      string
	Environment string // "sandbox" or "production"
	ProxyURL    string // local reverse proxy, tried before the direct transport
}

// BaseURL returns the direct-transport base URL for the environment.
func (c Credentials) BaseURL() string {
	if c.Environment == "production" {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

// Client talks to the payment gateway over JSON/HTTPS. Every operation
// goes through the same resilience policy: proxy transport with retries
// and linear backoff, then a single direct-transport fallback.
type Client struct {
	httpClient *http.Client
	creds      Credentials
	policy     RetryPolicy
	logger     zerolog.Logger
}

// NewClient creates a gateway client with the default retry policy.
func NewClient(creds Credentials) *Client {
	return NewClientWithPolicy(creds, DefaultRetryPolicy())
}

// NewClientWithPolicy creates a gateway client with a custom retry policy.
func NewClientWithPolicy(creds Credentials, policy RetryPolicy) *Client {
	return &Client{
		httpClient: &http.Client{},
		creds:      creds,
		policy:     policy,
		logger:     log.With().Str("component", "asaas").Logger(),
	}
}

// WithCredentials returns a new client using the given credential
// snapshot. The receiver is left untouched.
func (c *Client) WithCredentials(creds Credentials) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

// CreateCustomer registers a customer at the gateway.
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (*Customer, error) {
	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/customers", nil, req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreatePayment creates a charge, carrying the split partition to the
// gateway. Idempotency across retries is not guaranteed by the gateway;
// callers set ExternalReference so duplicates are at least detectable.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*Payment, error) {
	var payment Payment
	if err := c.do(ctx, http.MethodPost, "/payments", nil, req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPayment fetches a payment by gateway id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var payment Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+id, nil, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListPayments lists payments matching the filter.
func (c *Client) ListPayments(ctx context.Context, opts PaymentListOptions) (*PaymentList, error) {
	query := url.Values{}
	if opts.Customer != "" {
		query.Set("customer", opts.Customer)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.ExternalReference != "" {
		query.Set("externalReference", opts.ExternalReference)
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var list PaymentList
	if err := c.do(ctx, http.MethodGet, "/payments", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetPixQRCode fetches the PIX payout artifacts of a payment.
func (c *Client) GetPixQRCode(ctx context.Context, paymentID string) (*PixQRCode, error) {
	var qr PixQRCode
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID+"/pixQrCode", nil, nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// CreateSubscription creates a recurring charge.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", nil, req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateWebhook registers a webhook endpoint at the gateway.
func (c *Client) CreateWebhook(ctx context.Context, req WebhookRequest) (*Webhook, error) {
	var webhook Webhook
	if err := c.do(ctx, http.MethodPost, "/webhooks", nil, req, &webhook); err != nil {
		return nil, err
	}
	return &webhook, nil
}

// ListWebhooks lists the registered webhook endpoints.
func (c *Client) ListWebhooks(ctx context.Context) (*WebhookList, error) {
	var list WebhookList
	if err := c.do(ctx, http.MethodGet, "/webhooks", nil, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateWebhook updates a webhook endpoint configuration.
func (c *Client) UpdateWebhook(ctx context.Context, id string, req WebhookRequest) (*Webhook, error) {
	var webhook Webhook
	if err := c.do(ctx, http.MethodPut, "/webhooks/"+id, nil, req, &webhook); err != nil {
		return nil, err
	}
	return &webhook, nil
}

// DeleteWebhook removes a webhook endpoint.
func (c *Client) DeleteWebhook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/webhooks/"+id, nil, nil, nil)
}

// GetAccount fetches the gateway account profile.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var account Account
	if err := c.do(ctx, http.MethodGet, "/myAccount", nil, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetBalance fetches the gateway account balance.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	var balance Balance
	if err := c.do(ctx, http.MethodGet, "/finance/balance", nil, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// do runs one logical gateway operation under the resilience policy:
// proxy transport with bounded retries, then one direct attempt. A fatal
// gateway rejection (4xx) short-circuits both phases; callers never see
// partial state.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var proxyErr error
	if c.creds.ProxyURL != "" {
		for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
			err := c.attempt(ctx, strings.TrimSuffix(c.creds.ProxyURL, "/"), method, path, query, payload, out)
			if err == nil {
				return nil
			}

			var transient *transientError
			if !errors.As(err, &transient) {
				return err
			}
			proxyErr = err

			c.logger.Warn().
				Err(err).
				Str("method", method).
				Str("path", path).
				Int("attempt", attempt).
				Msg("Proxy transport attempt failed")

			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt < c.policy.MaxAttempts {
				if err := sleep(ctx, c.policy.Backoff(attempt)); err != nil {
					return err
				}
			}
		}
	} else {
		proxyErr = errors.New("proxy transport not configured")
	}

	err := c.attempt(ctx, c.creds.BaseURL(), method, path, query, payload, out)
	if err == nil {
		return nil
	}

	var transient *transientError
	if !errors.As(err, &transient) {
		return err
	}

	c.logger.Error().
		Err(err).
		Str("method", method).
		Str("path", path).
		Msg("Direct transport failed after proxy retries exhausted")

	return &TransportError{Proxy: proxyErr, Direct: err}
}

// attempt performs a single bounded request against one transport and
// classifies the outcome: nil on success, *transientError when the policy
// may retry, *APIError on a fatal gateway rejection.
func (c *Client) attempt(ctx context.Context, base, method, path string, query url.Values, payload []byte, out interface{}) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	endpoint := base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access_token", c.creds.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transientError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &transientError{err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return &transientError{err: fmt.Errorf("malformed response body: %w", err)}
		}
		return nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &transientError{err: fmt.Errorf("gateway returned %d: %s", resp.StatusCode, truncate(respBody))}

	default:
		apiErr := &APIError{StatusCode: resp.StatusCode, RawBody: string(respBody)}
		// Best effort: the gateway's error envelope may itself be absent.
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
