// Package validate performs the reachability pre-flight for a capture URL.
package validate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"multishot/logger"
)

const (
	// DefaultTimeout bounds a single reachability request.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is sent with reachability requests.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"
)

// ClientConfig configures the reachability HTTP client.
type ClientConfig struct {
	Timeout         time.Duration
	FollowRedirects bool
	UserAgent       string
}

// DefaultClientConfig returns the reachability client defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:         DefaultTimeout,
		FollowRedirects: true,
		UserAgent:       DefaultUserAgent,
	}
}

// NewHTTPClient builds an http.Client tuned for short checks.
func NewHTTPClient(cfg ClientConfig) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.Timeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	client := &http.Client{Timeout: cfg.Timeout, Transport: transport}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

// Verdict describes the outcome of a reachability check.
type Verdict struct {
	Valid      bool
	StatusCode int
	Method     string
	Reason     string
}

// Validator checks that a URL answers before any browser work starts.
type Validator struct {
	client    *http.Client
	userAgent string
	logger    logger.Logger
}

// New creates a Validator. A nil log discards output.
func New(cfg ClientConfig, log logger.Logger) *Validator {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Validator{
		client:    NewHTTPClient(cfg),
		userAgent: cfg.UserAgent,
		logger:    log,
	}
}

// Validate reports whether rawURL is reachable.
func (v *Validator) Validate(ctx context.Context, rawURL string) bool {
	verdict := v.Check(ctx, rawURL)
	fields := []logger.Field{
		logger.String("url", rawURL),
		logger.String("method", verdict.Method),
		logger.Int("status", verdict.StatusCode),
	}
	if verdict.Valid {
		v.logger.Info("URL reachable", fields...)
	} else {
		v.logger.Warn("URL not reachable", append(fields, logger.String("reason", verdict.Reason))...)
	}
	return verdict.Valid
}

// Check requests rawURL with HEAD, retrying with GET when the server rejects
// HEAD with 405. 200 and redirect statuses are valid; anything else,
// including transport failures, is invalid.
func (v *Validator) Check(ctx context.Context, rawURL string) Verdict {
	status, err := v.request(ctx, http.MethodHead, rawURL)
	method := http.MethodHead
	if err == nil && status == http.StatusMethodNotAllowed {
		method = http.MethodGet
		status, err = v.request(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return Verdict{Method: method, Reason: describe(err)}
	}
	verdict := Verdict{StatusCode: status, Method: method, Valid: Acceptable(status)}
	if !verdict.Valid {
		verdict.Reason = fmt.Sprintf("unexpected status %d", status)
	}
	return verdict
}

// Acceptable reports whether a response status lets the capture proceed.
func Acceptable(status int) bool {
	switch status {
	case http.StatusOK,
		http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

func (v *Validator) request(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", v.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	return resp.StatusCode, nil
}

func describe(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return err.Error()
	}
}
