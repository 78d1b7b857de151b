package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/active-strike/internal/model"
)

var testCreds = model.Credentials{
	Cookies: map[string]string{"sid": "abc", "_ga": "GA1"},
	Token:   "test-token",
}

var testRequest = StrikesRequest{Asset: "NIFTY", Date: "2024-01-15", Mode: "live"}

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com")

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.strikesPath != DefaultStrikesPath {
			t.Errorf("strikesPath = %q, want %q", c.strikesPath, DefaultStrikesPath)
		}
		if c.expiredMessage != DefaultExpiredMessage {
			t.Errorf("expiredMessage = %q, want %q", c.expiredMessage, DefaultExpiredMessage)
		}
		if c.http.GetClient().Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.http.GetClient().Timeout, 30*time.Second)
		}
		if c.maxRetries != 0 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 0)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.example.com", WithTimeout(5*time.Second))
		if c.http.GetClient().Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.http.GetClient().Timeout, 5*time.Second)
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://api.example.com", WithRetries(5, 2*time.Second))
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
		if c.http.RetryCount != 5 {
			t.Errorf("resty RetryCount = %d, want %d", c.http.RetryCount, 5)
		}
	})

	t.Run("with logger option", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com", WithLogger(logger))
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com", WithHTTPClient(customClient))
		if c.http.GetClient() != customClient {
			t.Error("custom HTTP client not set")
		}
	})

	t.Run("empty overrides keep defaults", func(t *testing.T) {
		c := NewClient("https://api.example.com", WithStrikesPath(""), WithExpiredMessage(""))
		if c.strikesPath != DefaultStrikesPath {
			t.Errorf("strikesPath = %q, want %q", c.strikesPath, DefaultStrikesPath)
		}
		if c.expiredMessage != DefaultExpiredMessage {
			t.Errorf("expiredMessage = %q, want %q", c.expiredMessage, DefaultExpiredMessage)
		}
	})
}

// TestAPIError tests the APIError type.
func TestAPIError(t *testing.T) {
	t.Run("Error method", func(t *testing.T) {
		err := &APIError{StatusCode: 404, Message: "Not Found"}
		expected := "strikes api error 404: Not Found"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("IsRetryable", func(t *testing.T) {
		tests := []struct {
			code     int
			expected bool
		}{
			{500, true},
			{502, true},
			{503, true},
			{429, true},
			{400, false},
			{403, false},
			{404, false},
			{200, false},
		}

		for _, tt := range tests {
			err := &APIError{StatusCode: tt.code}
			if got := err.IsRetryable(); got != tt.expected {
				t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
			}
		}
	})
}

func TestGetActiveStrikes_Request(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %q, want POST", r.Method)
		}
		if r.URL.Path != DefaultStrikesPath {
			t.Errorf("Path = %q, want %q", r.URL.Path, DefaultStrikesPath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization header = %q, want %q", got, "Bearer test-token")
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type header = %q, want %q", got, "application/json")
		}
		if c, err := r.Cookie("sid"); err != nil || c.Value != "abc" {
			t.Errorf("sid cookie = %v, %v", c, err)
		}
		if c, err := r.Cookie("_ga"); err != nil || c.Value != "GA1" {
			t.Errorf("_ga cookie = %v, %v", c, err)
		}

		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("request body is not JSON: %v", err)
		}
		want := map[string]string{
			"stSelectedAsset":         "NIFTY",
			"stSelectedAvailableDate": "2024-01-15",
			"stSelectedModeOfData":    "live",
		}
		for k, v := range want {
			if payload[k] != v {
				t.Errorf("body[%s] = %q, want %q", k, payload[k], v)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":[{"stTime":"09:15:00","inAssetPrice":22000,"obOiData":[{"CE":120},{"PE":95}]}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	resp, err := c.GetActiveStrikes(context.Background(), testCreds, testRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(resp.Data) != 1 {
		t.Fatalf("len(Data) = %d, want 1", len(resp.Data))
	}
	if resp.Data[0].Time != "09:15:00" {
		t.Errorf("Time = %q, want %q", resp.Data[0].Time, "09:15:00")
	}
	if resp.Data[0].Call().String() != "120" {
		t.Errorf("CE = %q, want %q", resp.Data[0].Call().String(), "120")
	}
}

func TestGetActiveStrikes_Classification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		expiredMsg string
		check      func(t *testing.T, resp *StrikesResponse, err error)
	}{
		{
			name:   "success with empty data",
			status: 200,
			body:   `{"status":"success","data":[]}`,
			check: func(t *testing.T, resp *StrikesResponse, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(resp.Data) != 0 {
					t.Errorf("len(Data) = %d, want 0", len(resp.Data))
				}
			},
		},
		{
			name:   "expired message",
			status: 200,
			body:   `{"status":"fail","msg":"!! Cookie has expired. Please login again."}`,
			check: func(t *testing.T, resp *StrikesResponse, err error) {
				if !errors.Is(err, ErrSessionExpired) {
					t.Errorf("err = %v, want ErrSessionExpired", err)
				}
			},
		},
		{
			name:       "custom expired message",
			status:     403,
			body:       `{"msg":"token invalid"}`,
			expiredMsg: "token invalid",
			check: func(t *testing.T, resp *StrikesResponse, err error) {
				if !errors.Is(err, ErrSessionExpired) {
					t.Errorf("err = %v, want ErrSessionExpired", err)
				}
			},
		},
		{
			name:   "401 without json",
			status: 401,
			body:   `Unauthorized`,
			check: func(t *testing.T, resp *StrikesResponse, err error) {
				if !errors.Is(err, ErrSessionExpired) {
					t.Errorf("err = %v, want ErrSessionExpired", err)
				}
			},
		},
		{
			name:   "unexpected payload",
			status: 200,
			body:   `{"status":"error","msg":"maintenance"}`,
			check: func(t *testing.T, resp *StrikesResponse, err error) {
				var ue *UnexpectedResponseError
				if !errors.As(err, &ue) {
					t.Fatalf("err = %v, want *UnexpectedResponseError", err)
				}
				if ue.Msg != "maintenance" || ue.Status != "error" {
					t.Errorf("UnexpectedResponseError = %+v", ue)
				}
			},
		},
		{
			name:   "http error with json",
			status: 404,
			body:   `{"status":"fail","msg":"no such route"}`,
			check: func(t *testing.T, resp *StrikesResponse, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("err = %v, want *APIError", err)
				}
				if apiErr.StatusCode != 404 || apiErr.Message != "no such route" {
					t.Errorf("APIError = %+v", apiErr)
				}
			},
		},
		{
			name:   "http error without json",
			status: 502,
			body:   `<html>bad gateway</html>`,
			check: func(t *testing.T, resp *StrikesResponse, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("err = %v, want *APIError", err)
				}
				if apiErr.StatusCode != 502 {
					t.Errorf("StatusCode = %d, want 502", apiErr.StatusCode)
				}
			},
		},
		{
			name:   "malformed json",
			status: 200,
			body:   `{"status":`,
			check: func(t *testing.T, resp *StrikesResponse, err error) {
				if err == nil {
					t.Fatal("expected error for malformed json")
				}
				var apiErr *APIError
				if errors.As(err, &apiErr) || errors.Is(err, ErrSessionExpired) {
					t.Errorf("err = %v, want decode error", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL, WithExpiredMessage(tt.expiredMsg))
			resp, err := c.GetActiveStrikes(context.Background(), testCreds, testRequest)
			tt.check(t, resp, err)
		})
	}
}

func TestGetActiveStrikes_SkipsMalformedRecords(t *testing.T) {
	body := `{"status":"success","data":[
		{"stTime":"09:15:00","inAssetPrice":21500.5,"obOiData":[{"CE":100},{"PE":95}]},
		{"stTime":920,"inAssetPrice":21510,"obOiData":[{"CE":101},{"PE":96}]},
		{"stTime":"09:25:00","inAssetPrice":21520,"obOiData":[1,{"PE":97}]},
		{"stTime":"09:30:00","inAssetPrice":21530,"obOiData":[{"CE":103},{"PE":98}]}
	]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	resp, err := c.GetActiveStrikes(context.Background(), testCreds, testRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", resp.Skipped)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("len(Data) = %d, want 2", len(resp.Data))
	}
	if resp.Data[0].Time != "09:15:00" || resp.Data[1].Time != "09:30:00" {
		t.Errorf("times = %q, %q, want 09:15:00, 09:30:00", resp.Data[0].Time, resp.Data[1].Time)
	}
	if got := resp.Data[0].Price().String(); got != "21500.5" {
		t.Errorf("Price = %q, want 21500.5", got)
	}
}

func TestGetActiveStrikes_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"success","data":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(3, time.Millisecond))
	if _, err := c.GetActiveStrikes(context.Background(), testCreds, testRequest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGetActiveStrikes_RetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"too many requests", http.StatusTooManyRequests, 3},
		{"bad gateway", http.StatusBadGateway, 3},
		{"not found", http.StatusNotFound, 1},
		{"forbidden", http.StatusForbidden, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := NewClient(server.URL, WithRetries(2, time.Millisecond))
			_, err := c.GetActiveStrikes(context.Background(), testCreds, testRequest)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestGetActiveStrikes_NoRetryOnExpiry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"msg":"!! Cookie has expired. Please login again."}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, WithRetries(3, time.Millisecond))
	_, err := c.GetActiveStrikes(context.Background(), testCreds, testRequest)
	if !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestGetActiveStrikes_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(server.URL)
	if _, err := c.GetActiveStrikes(ctx, testCreds, testRequest); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestHTTPCookies_Sorted(t *testing.T) {
	got := httpCookies(map[string]string{"b": "2", "a": "1", "c": "3"})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, name := range []string{"a", "b", "c"} {
		if got[i].Name != name {
			t.Errorf("cookie[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
}
