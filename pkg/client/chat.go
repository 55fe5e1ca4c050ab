package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/yornfifty/intentkit-chat/core/chat"
)

// History fetches a chat's messages, ordered oldest-first.
func (c *Client) History(ctx context.Context, agentID, chatID, userID string) ([]chat.Message, error) {
	path := fmt.Sprintf("/agents/%s/chat/history?chat_id=%s&user_id=%s",
		url.PathEscape(agentID), url.QueryEscape(chatID), url.QueryEscape(userID))

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var messages []chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return messages, nil
}

// Send posts a message to an agent. The service replies with either a single
// message or an array (agent reply plus skill result messages); both shapes
// are normalized to a slice.
func (c *Client) Send(ctx context.Context, agentID string, req chat.SendRequest) ([]chat.Message, error) {
	path := fmt.Sprintf("/agents/%s/chat/v2", url.PathEscape(agentID))

	resp, err := c.doRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var messages []chat.Message
		if err := json.Unmarshal(trimmed, &messages); err != nil {
			return nil, fmt.Errorf("error decoding response: %w", err)
		}
		return messages, nil
	}

	var message chat.Message
	if err := json.Unmarshal(trimmed, &message); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return []chat.Message{message}, nil
}
