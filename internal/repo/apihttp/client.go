package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivankudzin/tgapp/feedbot/internal/infra/httpclient"
)

const maxResponseBytes = 2 * 1024 * 1024

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type RequestError struct {
	Op         string
	StatusCode int
	Transient  bool
	// Message is the backend's own error text, when the body carried one.
	Message string
	Body    []byte
	Err     error
}

type actorTGIDContextKeyType struct{}
type idempotencyKeyContextKeyType struct{}

var (
	actorTGIDContextKey      actorTGIDContextKeyType
	idempotencyKeyContextKey idempotencyKeyContextKeyType
)

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewClient(baseURL string, apiKey string, timeout time.Duration) (*Client, error) {
	trimmedBaseURL := strings.TrimSpace(baseURL)
	if trimmedBaseURL == "" {
		return nil, &RequestError{
			Op:  "create api http client",
			Err: errors.New("api base url is empty"),
		}
	}

	parsed, err := url.Parse(trimmedBaseURL)
	if err != nil {
		return nil, &RequestError{
			Op:  "parse api base url",
			Err: err,
		}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &RequestError{
			Op:  "validate api base url",
			Err: fmt.Errorf("invalid api base url: %s", trimmedBaseURL),
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(trimmedBaseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpclient.New(timeout),
	}, nil
}

func IsTransient(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Transient
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// ErrorMessage returns the backend's error text, or "" when the failure never reached the backend.
func ErrorMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return ""
}

// IsSuspended reports whether the backend refused the request because the account is suspended.
func IsSuspended(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusForbidden {
		return false
	}
	return strings.Contains(strings.ToLower(reqErr.Message), "suspended")
}

// DecodeErrorBody decodes the body of a non-2xx response into target.
func DecodeErrorBody(err error, target interface{}) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode == 0 || len(reqErr.Body) == 0 {
		return false
	}
	return json.Unmarshal(reqErr.Body, target) == nil
}

func WithActorTGID(ctx context.Context, actorTGID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorTGIDContextKey, actorTGID)
}

func ActorTGIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	value, ok := ctx.Value(actorTGIDContextKey).(int64)
	if !ok {
		return 0
	}
	return value
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, idempotencyKeyContextKey, key)
}

func IdempotencyKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(idempotencyKeyContextKey).(string)
	return value
}

func (c *Client) DoJSON(ctx context.Context, method string, path string, requestBody interface{}, responseBody interface{}) error {
	if c == nil || c.httpClient == nil {
		return &RequestError{
			Op:  "do json request",
			Err: errors.New("api http client is not initialized"),
		}
	}

	var payload []byte
	if requestBody != nil {
		rawPayload, err := json.Marshal(requestBody)
		if err != nil {
			return &RequestError{
				Op:  "marshal request body",
				Err: err,
			}
		}
		payload = rawPayload
	}

	statusCode, responseBytes, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if responseBody == nil || len(responseBytes) == 0 {
		return nil
	}

	if err := json.Unmarshal(responseBytes, responseBody); err != nil {
		return &RequestError{
			Op:         "decode http response",
			StatusCode: statusCode,
			Err:        err,
		}
	}

	return nil
}

func (c *Client) do(ctx context.Context, method string, path string, body []byte) (int, []byte, error) {
	if strings.TrimSpace(method) == "" {
		method = http.MethodGet
	}

	fullURL := c.baseURL + ensureLeadingSlash(path)

	var bodyReader io.Reader
	if len(body) > 0 {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return 0, nil, &RequestError{
			Op:  "create http request",
			Err: err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if actorTGID := ActorTGIDFromContext(ctx); actorTGID != 0 {
		req.Header.Set("X-Actor-Tg-Id", strconv.FormatInt(actorTGID, 10))
	}
	if key := IdempotencyKeyFromContext(ctx); key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &RequestError{
			Op:        "execute http request",
			Transient: isTransientNetworkError(err),
			Err:       err,
		}
	}
	defer resp.Body.Close()

	responseBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return resp.StatusCode, nil, &RequestError{
			Op:         "read http response",
			StatusCode: resp.StatusCode,
			Transient:  true,
			Err:        readErr,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := extractErrorMessage(responseBytes)
		errText := message
		if errText == "" {
			errText = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, responseBytes, &RequestError{
			Op:         "unexpected http status",
			StatusCode: resp.StatusCode,
			Transient:  isTransientStatus(resp.StatusCode),
			Message:    message,
			Body:       responseBytes,
			Err:        errors.New(errText),
		}
	}

	return resp.StatusCode, responseBytes, nil
}

func extractErrorMessage(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}
	if msg := strings.TrimSpace(envelope.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(envelope.Message)
}

func isTransientNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isTransientStatus(statusCode int) bool {
	return statusCode >= 500
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
