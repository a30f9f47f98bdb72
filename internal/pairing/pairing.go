// Package pairing implements the three-endpoint pairing HTTP contract
// (K): this coordinator is the HTTP client, dialing out to each panel's
// own small HTTP surface (GET /api/info, POST /api/unpair, POST /pair),
// the same direction the session package dials the panel's WebSocket.
//
// Grounded on control-plane/internal/api/middleware.go's bearer-header
// idiom and control-plane/internal/enrollment/apikey.go's bcrypt secret
// handling, adapted from a server validating inbound keys to a client
// presenting an outbound bearer and verifying the panel's response shape.
package pairing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/trestlehq/coordinator/pkg/types"
)

// ResponseError is raised for any non-200 status that the contract does
// not explicitly permit.
type ResponseError struct {
	Status int
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("unexpected response status %d", e.Status)
}

// Client is a thin HTTP client for one panel's pairing surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client targeting the panel at baseURL (e.g.
// "https://192.168.1.40:8443").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type infoResponse struct {
	ID       string `json:"id"`
	UniqueID string `json:"unique_id"`
	DeviceID string `json:"device_id"`
}

func (r infoResponse) resolve() string {
	switch {
	case r.ID != "":
		return r.ID
	case r.UniqueID != "":
		return r.UniqueID
	default:
		return r.DeviceID
	}
}

// FetchDeviceID implements the orphan-recovery policy: on a 401 while
// holding a stored secret, it unpairs the panel and retries once
// unauthenticated. A second 401, or a 401 with no stored secret, is
// terminal and returns ("", nil).
func (c *Client) FetchDeviceID(ctx context.Context, secret string) (string, error) {
	id, status, err := c.fetchInfo(ctx, secret)
	if err != nil {
		return "", err
	}
	if status == http.StatusOK {
		return id, nil
	}
	if status != http.StatusUnauthorized {
		return "", &ResponseError{Status: status}
	}
	if secret == "" {
		return "", nil // terminal: no stored secret to recover with
	}

	if err := c.Unpair(ctx); err != nil {
		return "", err
	}

	id, status, err = c.fetchInfo(ctx, "")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", nil // second 401 (or any other non-OK) is terminal
	}
	return id, nil
}

func (c *Client) fetchInfo(ctx context.Context, secret string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/info", nil)
	if err != nil {
		return "", 0, err
	}
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := c.do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", resp.StatusCode, nil
	}

	var info infoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", 0, fmt.Errorf("decoding /api/info response: %w", err)
	}
	return info.resolve(), resp.StatusCode, nil
}

// Unpair calls the unauthenticated unpair endpoint. Idempotent on the
// panel side: calling it twice both succeed.
func (c *Client) Unpair(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/unpair", nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ResponseError{Status: resp.StatusCode}
	}
	return nil
}

// Pair presents a new secret to the panel, completing pairing.
func (c *Client) Pair(ctx context.Context, secret string) error {
	body, err := json.Marshal(map[string]string{"secret": secret})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pair", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &ResponseError{Status: resp.StatusCode}
	}
	return nil
}

// do maps timeouts and connection failures to the taxonomy's sentinel
// errors, per the contract's uniform error-mapping requirement.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err == nil {
		return resp, nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil, fmt.Errorf("%w: %v", types.ErrTransportTimeout, err)
	}
	return nil, fmt.Errorf("%w: %v", types.ErrConnection, err)
}
