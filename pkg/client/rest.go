package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nebulachat/messaging/pkg/wire"
)

// RequestError is a non-2xx answer from the server, carrying the status the
// caller needs to distinguish rollback-worthy rejections (403, 404) from
// transient trouble.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

func (e *RequestError) IsNotFound() bool { return e.Status == http.StatusNotFound }

// Rest implements Service over the HTTP API.
type Rest struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewRest(endpoint string, token string) *Rest {
	return &Rest{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (v *Rest) SendMessage(ctx context.Context, channelId uint, uuid string, draft Draft) (wire.Message, error) {
	var out wire.Message
	err := v.do(ctx, http.MethodPost, fmt.Sprintf("/api/channels/%d/messages", channelId), map[string]any{
		"uuid":        uuid,
		"body":        draft.Body,
		"attachments": draft.Attachments,
		"reply_to_id": draft.ReplyToID,
	}, &out)
	return out, err
}

func (v *Rest) EditMessage(ctx context.Context, channelId uint, messageId uint, body string) (wire.Message, error) {
	var out wire.Message
	err := v.do(ctx, http.MethodPut, fmt.Sprintf("/api/channels/%d/messages/%d", channelId, messageId), map[string]any{
		"body": body,
	}, &out)
	return out, err
}

func (v *Rest) DeleteMessage(ctx context.Context, channelId uint, messageId uint) error {
	return v.do(ctx, http.MethodDelete, fmt.Sprintf("/api/channels/%d/messages/%d", channelId, messageId), nil, nil)
}

func (v *Rest) ToggleReaction(ctx context.Context, channelId uint, messageId uint, emoji string) (wire.Message, error) {
	var out wire.Message
	err := v.do(ctx, http.MethodPost, fmt.Sprintf("/api/channels/%d/messages/%d/reactions", channelId, messageId), map[string]any{
		"emoji": emoji,
	}, &out)
	return out, err
}

// ListMessages fetches one page of channel history, newest first, in the
// shape Engine.Open expects.
func (v *Rest) ListMessages(ctx context.Context, channelId uint, take int, offset int) ([]wire.Message, error) {
	var out struct {
		Count int64          `json:"count"`
		Data  []wire.Message `json:"data"`
	}
	path := fmt.Sprintf("/api/channels/%d/messages?take=%d&offset=%d", channelId, take, offset)
	if err := v.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (v *Rest) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := jsoniter.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, v.endpoint+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.token)

	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &RequestError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(raw)),
		}
	}
	if out != nil {
		return jsoniter.Unmarshal(raw, out)
	}
	return nil
}
