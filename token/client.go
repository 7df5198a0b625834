package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"
)

// Client calls a remote token service over HTTP
type Client struct {
	BaseURL string
	Client  *http.Client
}

// NewClient creates a client with the given request timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type transferRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

func (c *Client) Transfer(ctx context.Context, tokenService, recipient string, amount *big.Int) error {
	body, err := json.Marshal(transferRequest{Recipient: recipient, Amount: amount.String()})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/tokens/%s/transfer", c.BaseURL, url.PathEscape(tokenService))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("token transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("token transfer: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
