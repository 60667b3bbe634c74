// Package client implements the request/response side of the backend
// contract. It owns no trading state; callers reconcile results into the
// cache.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/boomslang777/ram2/internal/logging"
	"github.com/boomslang777/ram2/internal/models"
)

// ServerError is a non-success response carrying a detail message. The detail
// is surfaced verbatim to the operator.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// IsTransient reports whether an error is a transport failure (as opposed to
// a validation error or server rejection) and a retry may succeed.
func IsTransient(err error) bool {
	var se *ServerError
	if errors.As(err, &se) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, context.DeadlineExceeded)
}

// Ack is the acknowledgement body returned by mutating endpoints.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	OrderID int    `json:"order_id,omitempty"`
}

// Err converts an application-level error acknowledgement into a ServerError.
// Some endpoints report rejection inside a 200 body rather than a status code.
func (a Ack) Err() error {
	if a.Status == "error" {
		return &ServerError{StatusCode: http.StatusOK, Detail: a.Message}
	}
	return nil
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the backend over HTTP.
type Client struct {
	base string
	hc   *http.Client
	log  zerolog.Logger
}

// New creates a client for the given base URL.
func New(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
		log:  logging.WithComponent(log, "client"),
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("path", req.URL.Path).Msg("request failed")
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request complete")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading body: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(raw, &body)
		return &ServerError{StatusCode: resp.StatusCode, Detail: body.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// GetSettings fetches the settings record.
func (c *Client) GetSettings(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	err := c.get(ctx, "/api/settings", &s)
	return s, err
}

// UpdateSettings persists the whole settings record and returns the stored
// copy.
func (c *Client) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	var out models.Settings
	err := c.post(ctx, "/api/settings", s, &out)
	return out, err
}

// GetPositions fetches the ordered position list.
func (c *Client) GetPositions(ctx context.Context) ([]models.Position, error) {
	var positions []models.Position
	err := c.get(ctx, "/api/positions", &positions)
	return positions, err
}

// GetOrders fetches the ordered order list.
func (c *Client) GetOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := c.get(ctx, "/api/orders", &orders)
	return orders, err
}

// GetSpyPrice fetches the current underlying price.
func (c *Client) GetSpyPrice(ctx context.Context) (float64, error) {
	var out struct {
		Price float64 `json:"price"`
	}
	err := c.get(ctx, "/api/spy-price", &out)
	return out.Price, err
}

// ClosePosition requests a full market exit of a position by contract id.
func (c *Client) ClosePosition(ctx context.Context, positionID int) (Ack, error) {
	var ack Ack
	err := c.post(ctx, "/api/close-position", map[string]int{"position_id": positionID}, &ack)
	if err == nil {
		err = ack.Err()
	}
	return ack, err
}

// CancelOrder requests cancellation of a working order.
func (c *Client) CancelOrder(ctx context.Context, orderID int) (Ack, error) {
	var ack Ack
	err := c.post(ctx, "/api/cancel-order", map[string]int{"order_id": orderID}, &ack)
	if err == nil {
		err = ack.Err()
	}
	return ack, err
}

// SendSignal submits a named trading signal.
func (c *Client) SendSignal(ctx context.Context, sig models.Signal) (Ack, error) {
	var ack Ack
	err := c.post(ctx, "/api/signal", sig, &ack)
	if err == nil {
		err = ack.Err()
	}
	return ack, err
}

// QuickTrade submits a signal through the quick-trade alias.
func (c *Client) QuickTrade(ctx context.Context, sig models.Signal) (Ack, error) {
	var ack Ack
	err := c.post(ctx, "/api/quick-trade", sig, &ack)
	if err == nil {
		err = ack.Err()
	}
	return ack, err
}

type orderRequest struct {
	PositionID int `json:"position_id"`
	Quantity   int `json:"quantity"`
}

// Buy places a buy order against an existing position.
func (c *Client) Buy(ctx context.Context, positionID, quantity int) (Ack, error) {
	var ack Ack
	path := fmt.Sprintf("/api/positions/%d/buy", positionID)
	err := c.post(ctx, path, orderRequest{PositionID: positionID, Quantity: quantity}, &ack)
	if err == nil {
		err = ack.Err()
	}
	return ack, err
}

// Sell places a sell order against an existing position.
func (c *Client) Sell(ctx context.Context, positionID, quantity int) (Ack, error) {
	var ack Ack
	path := fmt.Sprintf("/api/positions/%d/sell", positionID)
	err := c.post(ctx, path, orderRequest{PositionID: positionID, Quantity: quantity}, &ack)
	if err == nil {
		err = ack.Err()
	}
	return ack, err
}
