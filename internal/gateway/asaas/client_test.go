package asaas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     func(attempt int) time.Duration { return time.Millisecond },
		Timeout:     2 * time.Second,
	}
}

func TestGetPayment_RetriesOn503ThenSucceeds(t *testing.T) {
	var proxyCalls int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&proxyCalls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pay_123","status":"PENDING","value":90.0}`))
	}))
	defer proxy.Close()

	var directCalls int32
	client := NewClientWithPolicy(Credentials{APIKey: "k", ProxyURL: proxy.URL}, testPolicy())
	client.httpClient = &http.Client{Transport: countingGatewayTransport(&directCalls)}

	payment, err := client.GetPayment(context.Background(), "pay_123")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if payment.ID != "pay_123" {
		t.Errorf("Expected payment id 'pay_123', got %s", payment.ID)
	}
	if atomic.LoadInt32(&proxyCalls) != 3 {
		t.Errorf("Expected exactly 3 proxy attempts, got %d", proxyCalls)
	}
	if atomic.LoadInt32(&directCalls) != 0 {
		t.Errorf("Expected zero direct-transport calls, got %d", directCalls)
	}
}

func TestGetPayment_ProxyUnreachableFallsBackToDirect(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("access_token"); got != "k" {
			t.Errorf("Expected credential replayed on direct transport, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pay_999","status":"CONFIRMED","value":10.0}`))
	}))
	defer direct.Close()

	// Proxy port is closed; every proxy attempt fails with a network error.
	client := NewClientWithPolicy(Credentials{APIKey: "k", ProxyURL: "http://127.0.0.1:1"}, testPolicy())
	client.httpClient = &http.Client{Transport: rewriteGatewayHost(direct.URL)}

	payment, err := client.GetPayment(context.Background(), "pay_999")
	if err != nil {
		t.Fatalf("Expected fallback to direct transport, got %v", err)
	}
	if payment.ID != "pay_999" || payment.Status != "CONFIRMED" {
		t.Errorf("Expected direct payload returned unchanged, got %+v", payment)
	}
}

func TestCreatePayment_FatalErrorNotRetried(t *testing.T) {
	var calls int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"code":"invalid_value","description":"value is invalid"}]}`))
	}))
	defer proxy.Close()

	client := NewClientWithPolicy(Credentials{APIKey: "k", ProxyURL: proxy.URL}, testPolicy())

	_, err := client.CreatePayment(context.Background(), PaymentRequest{Customer: "cus_1", Value: -1})
	if err == nil {
		t.Fatal("Expected error for 400 response, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", apiErr.StatusCode)
	}
	if len(apiErr.Errors) != 1 || apiErr.Errors[0].Code != "invalid_value" {
		t.Errorf("Expected parsed error envelope, got %+v", apiErr.Errors)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected exactly 1 attempt for fatal error, got %d", calls)
	}
}

func TestGetPayment_MalformedProxyResponseIsRetryable(t *testing.T) {
	var calls int32
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			w.Write([]byte(`<html>proxy error page</html>`))
			return
		}
		w.Write([]byte(`{"id":"pay_1"}`))
	}))
	defer proxy.Close()

	client := NewClientWithPolicy(Credentials{APIKey: "k", ProxyURL: proxy.URL}, testPolicy())

	payment, err := client.GetPayment(context.Background(), "pay_1")
	if err != nil {
		t.Fatalf("Expected retry after malformed response, got %v", err)
	}
	if payment.ID != "pay_1" {
		t.Errorf("Expected payment id 'pay_1', got %s", payment.ID)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestDo_BothTransportsFailReturnsCompositeError(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer proxy.Close()

	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer direct.Close()

	client := NewClientWithPolicy(Credentials{APIKey: "k", ProxyURL: proxy.URL}, testPolicy())
	client.httpClient = &http.Client{Transport: rewriteGatewayHost(direct.URL)}

	_, err := client.GetBalance(context.Background())
	if err == nil {
		t.Fatal("Expected composite error, got nil")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Expected TransportError, got %T: %v", err, err)
	}
	if transportErr.Proxy == nil || transportErr.Direct == nil {
		t.Errorf("Expected both failure descriptions, got %+v", transportErr)
	}
}

func TestDo_CancelledContextAbortsRetries(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer proxy.Close()

	client := NewClientWithPolicy(Credentials{APIKey: "k", ProxyURL: proxy.URL}, RetryPolicy{
		MaxAttempts: 3,
		Backoff:     func(int) time.Duration { return time.Second },
		Timeout:     2 * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.GetBalance(ctx)
	if err == nil {
		t.Fatal("Expected error after cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected cancellation to abort backoff promptly, took %v", elapsed)
	}
}

func TestCredentials_BaseURLSelectsEnvironment(t *testing.T) {
	sandbox := Credentials{Environment: "sandbox"}
	if sandbox.BaseURL() != SandboxBaseURL {
		t.Errorf("Expected sandbox base URL, got %s", sandbox.BaseURL())
	}

	production := Credentials{Environment: "production"}
	if production.BaseURL() != ProductionBaseURL {
		t.Errorf("Expected production base URL, got %s", production.BaseURL())
	}
}

func TestWithCredentials_ReturnsNewSnapshot(t *testing.T) {
	client := NewClient(Credentials{APIKey: "old"})
	reloaded := client.WithCredentials(Credentials{APIKey: "new"})

	if client.creds.APIKey != "old" {
		t.Errorf("Expected original client untouched, got key %s", client.creds.APIKey)
	}
	if reloaded.creds.APIKey != "new" {
		t.Errorf("Expected reloaded client to carry new key, got %s", reloaded.creds.APIKey)
	}
}

// rewriteGatewayHost redirects requests aimed at the real gateway hosts to
// the given test server while leaving proxy-transport requests untouched.
func rewriteGatewayHost(target string) http.RoundTripper {
	parsed, err := url.Parse(target)
	if err != nil {
		panic(err)
	}
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Host, "asaas.com") {
			clone := req.Clone(req.Context())
			u := *req.URL
			u.Scheme = parsed.Scheme
			u.Host = parsed.Host
			clone.URL = &u
			return http.DefaultTransport.RoundTrip(clone)
		}
		return http.DefaultTransport.RoundTrip(req)
	})
}

// countingGatewayTransport counts requests that would leave for the real
// gateway hosts and fails them, so tests can assert no fallback happened.
func countingGatewayTransport(counter *int32) http.RoundTripper {
	return roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Host, "asaas.com") {
			atomic.AddInt32(counter, 1)
			return nil, errors.New("unexpected direct-transport call")
		}
		return http.DefaultTransport.RoundTrip(req)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
