package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yornfifty/intentkit-chat/core/chat"
)

// CheckStatus probes the service root. Any HTTP status in [200,450) counts
// as online; redirects and auth challenges still prove the service is there.
func (c *Client) CheckStatus(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("error reaching agent service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 450 {
		return fmt.Errorf("agent service offline (status %d)", resp.StatusCode)
	}
	return nil
}

// ListAgents returns all agents exposed by the service.
func (c *Client) ListAgents(ctx context.Context) ([]chat.Agent, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/agents", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var agents []chat.Agent
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return agents, nil
}
