// Package paymentsapi reads a subject's transactions from the payments
// backend over HTTP.
package paymentsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bibbank/riskwatch/internal/domain/model"
)

const maxBodyBytes = 16 << 20

// Config holds configuration for the payments backend client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries uint64
}

// DefaultConfig returns client defaults for a backend at baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("payments api returned %d: %s", e.StatusCode, e.Body)
}

// Client implements port.TransactionSource against the payments backend.
type Client struct {
	http       *http.Client
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
	baseURL    string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackOff replaces the retry policy.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = newBackOff }
}

// NewClient creates a payments backend client.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	retries := cfg.MaxRetries
	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		logger:  logger,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTransactions fetches the subject's transactions at or after since.
// Server errors and network failures are retried; 4xx responses are not.
func (c *Client) ListTransactions(ctx context.Context, subjectID string, since time.Time) ([]model.Transaction, error) {
	endpoint := fmt.Sprintf("%s/v1/subjects/%s/transactions?since=%s",
		c.baseURL, url.PathEscape(subjectID), url.QueryEscape(since.UTC().Format(time.RFC3339)))

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.get(ctx, endpoint)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		body = b
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "payments api request failed, retrying",
			"subject_id", subjectID,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", subjectID, err)
	}

	txs, err := decodeTransactions(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transactions for %s: %w", subjectID, err)
	}
	return txs, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	return body, nil
}

// decodeTransactions accepts either a bare array or {"transactions": [...]}.
func decodeTransactions(body []byte) ([]model.Transaction, error) {
	trimmed := bytes.TrimSpace(body)

	var records []wireTransaction
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
	} else {
		var page struct {
			Transactions []wireTransaction `json:"transactions"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, err
		}
		records = page.Transactions
	}

	txs := make([]model.Transaction, 0, len(records))
	for _, r := range records {
		txs = append(txs, r.toModel())
	}
	return txs, nil
}
