package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rickgao/active-strike/internal/model"
)

var tracer = otel.Tracer("internal/api")

// ErrSessionExpired is returned when the API reports that the captured session is no longer valid.
var ErrSessionExpired = errors.New("session expired")

// APIError represents an HTTP error from the API that is not a session expiry.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("strikes api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// UnexpectedResponseError is a well-formed response that is neither success nor expiry.
type UnexpectedResponseError struct {
	StatusCode int
	Status     string
	Msg        string
	Body       []byte
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response (http %d): status=%q msg=%q", e.StatusCode, e.Status, e.Msg)
}

// GetActiveStrikes posts the strike query with the session credentials.
//
// It returns ErrSessionExpired, *APIError or *UnexpectedResponseError for the
// non-success outcomes; transport and decode failures are wrapped as-is.
func (c *Client) GetActiveStrikes(ctx context.Context, creds model.Credentials, req StrikesRequest) (*StrikesResponse, error) {
	ctx, span := tracer.Start(ctx, "client:GetActiveStrikes")
	defer span.End()
	span.SetAttributes(
		attribute.String("strikes.asset", req.Asset),
		attribute.String("strikes.date", req.Date),
	)

	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(creds.Token).
		SetCookies(httpCookies(creds.Cookies)).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.strikesPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("post strikes: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode()))

	resp, err := c.classify(res.StatusCode(), res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsuccessful response")
		return nil, err
	}

	c.logger.Debug("strikes fetched",
		"asset", req.Asset,
		"date", req.Date,
		"records", len(resp.Data),
		"skipped", resp.Skipped,
	)
	return resp, nil
}

// classify maps an HTTP status and body onto the three response outcomes.
func (c *Client) classify(statusCode int, body []byte) (*StrikesResponse, error) {
	var resp StrikesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if statusCode == http.StatusUnauthorized {
			return nil, ErrSessionExpired
		}
		if statusCode >= 400 {
			return nil, &APIError{
				StatusCode: statusCode,
				Message:    http.StatusText(statusCode),
				Body:       body,
			}
		}
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	switch {
	case resp.Status == StatusSuccess:
		return &resp, nil
	case c.isExpired(resp.Msg) || statusCode == http.StatusUnauthorized:
		return nil, ErrSessionExpired
	case statusCode >= 400:
		msg := resp.Msg
		if msg == "" {
			msg = http.StatusText(statusCode)
		}
		return nil, &APIError{StatusCode: statusCode, Message: msg, Body: body}
	default:
		return nil, &UnexpectedResponseError{
			StatusCode: statusCode,
			Status:     resp.Status,
			Msg:        resp.Msg,
			Body:       body,
		}
	}
}

func (c *Client) isExpired(msg string) bool {
	return msg != "" && strings.TrimSpace(msg) == strings.TrimSpace(c.expiredMessage)
}

// httpCookies converts the stored name/value mapping, sorted by name.
func httpCookies(cookies map[string]string) []*http.Cookie {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		out = append(out, &http.Cookie{Name: name, Value: cookies[name]})
	}
	return out
}
