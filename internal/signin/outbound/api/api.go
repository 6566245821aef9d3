package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/pkg/instrument"
	"github.com/shandysiswandi/goknock/internal/pkg/uid"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerCorrelationID = "X-Correlation-ID"

	pathRequestOTP = "/api/v1/identity/otp/request"
	pathVerifyOTP  = "/api/v1/identity/otp/verify"

	maxResponseBytes = 1 << 20
)

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type requestOTPBody struct {
	Phone    string `json:"phone"`
	FullName string `json:"full_name,omitempty"`
}

type verifyOTPBody struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type sessionData struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         userData  `json:"user"`
}

type userData struct {
	ID       int64  `json:"id,string"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Client talks to the identity API's two OTP endpoints.
type Client struct {
	baseURL string
	hc      *http.Client
	uuid    uid.StringID
	ins     instrument.Instrumentation
}

type Config struct {
	// BaseURL is the identity API root, without a trailing slash.
	BaseURL string
	// HTTPClient is optional; a 15 second timeout client is the default.
	HTTPClient *http.Client
	// UUID generates correlation IDs when the context carries none.
	UUID uid.StringID
	// Instrument provides tracing.
	Instrument instrument.Instrumentation
}

func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		baseURL: cfg.BaseURL,
		hc:      hc,
		uuid:    cfg.UUID,
		ins:     cfg.Instrument,
	}
}

// RequestOTP asks the server to send a code to the phone. It is never
// retried: every attempt makes the server send another SMS.
func (c *Client) RequestOTP(ctx context.Context, phone, fullName string) (err error) {
	ctx, span := c.startSpan(ctx, "RequestOTP")
	defer func() { c.endSpan(span, err) }()

	_, err = c.post(ctx, pathRequestOTP, requestOTPBody{Phone: phone, FullName: fullName})
	return err
}

// VerifyOTP submits the code and returns the issued session on success.
// Transport failures are retried with a capped fibonacci backoff; the server
// treats verification idempotently, so a duplicate submit is safe. HTTP
// error statuses are not retried.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (sess *entity.Session, err error) {
	ctx, span := c.startSpan(ctx, "VerifyOTP")
	defer func() { c.endSpan(span, err) }()

	var data []byte

	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	b = retry.WithMaxRetries(2, b)

	err = retry.Do(ctx, b, func(ctx context.Context) error {
		var postErr error
		data, postErr = c.post(ctx, pathVerifyOTP, verifyOTPBody{Phone: phone, OTP: otp})

		var transportErr *transportError
		if errors.As(postErr, &transportErr) {
			return retry.RetryableError(postErr)
		}

		return postErr
	})
	if err != nil {
		return nil, err
	}

	var sd sessionData
	if err = json.Unmarshal(data, &sd); err != nil {
		return nil, goerror.NewServer(fmt.Errorf("api: decode verify response: %w", err))
	}

	return &entity.Session{
		AccessToken:  sd.AccessToken,
		RefreshToken: sd.RefreshToken,
		ExpiresAt:    sd.ExpiresAt,
		User: entity.User{
			ID:       sd.User.ID,
			FullName: sd.User.FullName,
			Phone:    sd.User.Phone,
		},
	}, nil
}

// transportError marks failures where no HTTP response was received.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return "api: transport failure: " + e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}

// post executes the call and returns the data portion of the success
// envelope, or an error mapped from the response status.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, goerror.NewServer(fmt.Errorf("api: encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, goerror.NewServer(fmt.Errorf("api: build request: %w", err))
	}

	cID := instrument.GetCorrelationID(ctx)
	if cID == "" && c.uuid != nil {
		cID = c.uuid.Generate()
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if cID != "" {
		req.Header.Set(headerCorrelationID, cID)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read side only

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &transportError{err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.mapError(resp.StatusCode, raw)
	}

	var env successEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, goerror.NewServer(fmt.Errorf("api: decode response envelope: %w", err))
	}

	return env.Data, nil
}

// mapError buckets a non-success status: 422 means the code was rejected,
// everything else is a generic remote failure keyed by status.
func (c *Client) mapError(status int, raw []byte) error {
	if status == http.StatusUnprocessableEntity {
		return entity.ErrOTPRejected
	}

	msg := "remote call failed"

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		msg = env.Message
	}

	return goerror.NewTransport(fmt.Errorf("api: %s (status %d)", msg, status), status)
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("signin.outbound.api").Start(ctx, name)
}

func (c *Client) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, entity.ErrOTPRejected) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
