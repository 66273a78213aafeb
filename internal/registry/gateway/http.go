package gateway

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"swiftpolicy/pkg/domain"
	"swiftpolicy/pkg/platform/circuit"
)

const maxResponseBytes = 64 << 10

// HTTP is the JSON-over-HTTP registry client. Calls are traced and guarded by
// a circuit breaker so a dead registry is not hammered every tick.
type HTTP struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *circuit.Breaker
	tracer  trace.Tracer
}

type HTTPOption func(*HTTP)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(h *HTTP) {
		h.breaker = b
	}
}

func NewHTTP(baseURL, apiKey string, timeout time.Duration, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		},
		breaker: circuit.New("mid-gateway"),
		tracer:  otel.Tracer("swiftpolicy/registry/gateway"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type submitRequest struct {
	VRM string `json:"vrm"`
}

type submitResponse struct {
	Accepted     bool   `json:"accepted"`
	Confirmation string `json:"confirmation"`
	Message      string `json:"message"`
}

func (h *HTTP) Submit(ctx context.Context, vrm domain.VRM) (res Result, err error) {
	ctx, span := h.tracer.Start(ctx, "registry.submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("mid.vrm", vrm.String())),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(CategoryOf(err)))
		} else {
			span.SetAttributes(attribute.Bool("mid.accepted", res.Accepted))
		}
		span.End()
	}()

	if !h.breaker.Allow() {
		return Result{}, NewError(ErrorOutage, "circuit open", nil)
	}

	res, err = h.do(ctx, vrm)
	if err != nil && IsRetryable(err) {
		h.breaker.RecordFailure()
	} else {
		h.breaker.RecordSuccess()
	}
	return res, err
}

func (h *HTTP) do(ctx context.Context, vrm domain.VRM) (Result, error) {
	body, err := json.Marshal(submitRequest{VRM: vrm.String()})
	if err != nil {
		return Result{}, NewError(ErrorInternal, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/submissions", bytes.NewReader(body))
	if err != nil {
		return Result{}, NewError(ErrorInternal, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Result{}, NewError(ErrorTimeout, "registry did not respond in time", err)
		}
		return Result{}, NewError(ErrorOutage, "registry unreachable", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return Result{}, err
	}

	var out submitResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return Result{}, NewError(ErrorBadData, "decode registry response", err)
	}
	if out.Accepted && out.Confirmation == "" {
		return Result{}, NewError(ErrorBadData, "accepted without confirmation token", nil)
	}
	return Result{Accepted: out.Accepted, Confirmation: out.Confirmation, Diagnostic: out.Message}, nil
}

func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return NewError(ErrorAuthentication, fmt.Sprintf("registry refused credentials (%d)", code), nil)
	case code == http.StatusTooManyRequests:
		return NewError(ErrorRateLimited, "registry rate limited", nil)
	case code == http.StatusUnprocessableEntity || code == http.StatusBadRequest:
		return NewError(ErrorRejected, fmt.Sprintf("registry rejected submission (%d)", code), nil)
	case code >= 500:
		return NewError(ErrorOutage, fmt.Sprintf("registry error (%d)", code), nil)
	default:
		return NewError(ErrorBadData, fmt.Sprintf("unexpected registry status %d", code), nil)
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
