package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nba-agent/server/internal/agent/model"
	errx "github.com/nba-agent/server/internal/core/error"
)

type fakeAssistant struct {
	mu     sync.Mutex
	inputs []model.QueryInput
	resets []string
	err    error
}

func (f *fakeAssistant) Invoke(_ context.Context, in model.QueryInput) (*model.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Reply{
		ConversationID: in.ConversationID,
		Output:         "answer to " + in.Query,
		Route:          model.RouteDirect,
	}, nil
}

func (f *fakeAssistant) Reset(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, id)
	return f.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestIndexPage(t *testing.T) {
	h := NewHandler(&fakeAssistant{}, 0)

	w := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Courtside")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
}

func TestChatAssignsConversationID(t *testing.T) {
	fa := &fakeAssistant{}
	h := NewHandler(fa, 0)

	w := do(t, h, http.MethodPost, "/api/chat", `{"message":"Curry points"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var reply model.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Len(t, reply.ConversationID, 36)
	assert.Equal(t, "answer to Curry points", reply.Output)
	require.Len(t, fa.inputs, 1)
	assert.Equal(t, reply.ConversationID, fa.inputs[0].ConversationID)

	w = do(t, h, http.MethodPost, "/api/chat", `{"conversation_id":"abc","message":"again"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", fa.inputs[1].ConversationID)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "request body must be JSON"},
		{"empty message", `{"message":"   "}`, nil, http.StatusBadRequest, "message is required"},
		{"redis down", `{"message":"Lakers record"}`, errx.WrapRedis(errors.New("dial tcp")), http.StatusBadGateway, errx.RedisErrorMessage},
		{"timeout", `{"message":"Lakers record"}`, context.DeadlineExceeded, http.StatusGatewayTimeout, "took too long"},
		{"plain error", `{"message":"Lakers record"}`, errors.New("boom"), http.StatusInternalServerError, errx.SystemErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&fakeAssistant{err: tt.err}, 0)
			w := do(t, h, http.MethodPost, "/api/chat", tt.body)
			assert.Equal(t, tt.status, w.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body.Error, tt.msg)
		})
	}
}

func TestResetConversation(t *testing.T) {
	fa := &fakeAssistant{}
	h := NewHandler(fa, 0)

	w := do(t, h, http.MethodDelete, "/api/conversations/abc-123", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"abc-123"}, fa.resets)
}

func TestExamplesAndHealth(t *testing.T) {
	h := NewHandler(&fakeAssistant{}, 0)

	w := do(t, h, http.MethodGet, "/api/examples", "")
	require.Equal(t, http.StatusOK, w.Code)
	var groups []struct {
		Category string   `json:"category"`
		Queries  []string `json:"queries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	assert.Len(t, groups, 4)

	w = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServerShutsDownOnCancel(t *testing.T) {
	srv, err := NewServer(Config{Addr: "127.0.0.1:0"}, &fakeAssistant{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
