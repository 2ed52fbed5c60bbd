package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {

	testCases := []struct {
		name          string
		body          string
		code          int
		expectedError string
	}{
		{name: "ok", body: `{"ok": true, "result": {"message_id": 1}}`, code: http.StatusOK},
		{name: "blocked", body: `{"ok": false, "error_code": 403, "description": "Forbidden: bot was blocked by the user"}`, code: http.StatusForbidden, expectedError: "telegram API sendMessage error: Forbidden: bot was blocked by the user"},
		{name: "chat not found", body: `{"ok": false, "error_code": 400, "description": "Bad Request: chat not found"}`, code: http.StatusBadRequest, expectedError: "telegram API sendMessage error: Bad Request: chat not found"},
		{name: "ok false with 200", body: `{"ok": false, "description": "weird"}`, code: http.StatusOK, expectedError: "telegram API sendMessage error: weird"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var received map[string]string
			svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
				body, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(body, &received)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.code)
				fmt.Fprint(w, tc.body)
			}))
			defer svr.Close()

			c := NewClient(svr.URL, "TOKEN")
			err := c.SendMessage(context.Background(), "@alice", "hello")

			assert.Equal(t, map[string]string{"chat_id": "@alice", "text": "hello"}, received)
			if tc.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.expectedError)
			var apiErr *APIError
			assert.ErrorAs(t, err, &apiErr)
		})
	}
}

func TestSendMessageWithoutTarget(t *testing.T) {
	c := NewClient("http://localhost:0", "TOKEN")
	var apiErr *APIError
	assert.ErrorAs(t, c.SendMessage(context.Background(), "", "hello"), &apiErr)

	c = NewClient("http://localhost:0", "")
	assert.ErrorIs(t, c.SendMessage(context.Background(), "1", "hello"), ErrNotConfigured)
}

func TestGetUpdates(t *testing.T) {

	body := `{"ok": true, "result": [
		{"update_id": 10, "message": {"message_id": 1, "from": {"id": 5, "username": "alice"}, "chat": {"id": 5, "type": "private"}, "text": "/start"}},
		{"update_id": 11, "channel_post": {"message_id": 2, "chat": {"id": -100123, "type": "channel"}, "caption": "photo"}},
		{"update_id": 12, "edited_message": {"message_id": 3, "from": {"id": 6}, "chat": {"id": 6, "type": "private"}, "text": "/id"}},
		{"update_id": 13, "my_chat_member": {}}
	]}`

	var received map[string]int64
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/getUpdates", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &received)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	defer svr.Close()

	c := NewClient(svr.URL, "TOKEN")
	updates, err := c.GetUpdates(context.Background(), 10, 50)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"offset": 10, "timeout": 50}, received)
	require.Len(t, updates, 4)

	assert.Equal(t, "5", updates[0].ChatID())
	assert.Equal(t, "alice", updates[0].SenderUsername())
	assert.Equal(t, "/start", updates[0].Text())

	assert.Equal(t, "-100123", updates[1].ChatID())
	assert.Equal(t, "", updates[1].SenderUsername())
	assert.Equal(t, "photo", updates[1].Text())

	assert.Equal(t, "6", updates[2].ChatID())
	assert.Equal(t, "", updates[2].SenderUsername())

	assert.Nil(t, updates[3].EffectiveMessage())
	assert.Equal(t, "", updates[3].ChatID())
	assert.Equal(t, int64(13), updates[3].UpdateID)
}

func TestGetUpdatesError(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"ok": false, "error_code": 409, "description": "Conflict: can't use getUpdates method while webhook is active"}`)
	}))
	defer svr.Close()

	c := NewClient(svr.URL, "TOKEN")
	updates, err := c.GetUpdates(context.Background(), 0, 1)
	assert.Nil(t, updates)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Code)
	assert.Equal(t, "getUpdates", apiErr.Method)
}
