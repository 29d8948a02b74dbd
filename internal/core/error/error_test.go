package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrapAndAs(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("load history: %w", New(cause, http.StatusBadGateway, RedisErrorMessage))

	assert.ErrorIs(t, err, cause)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusBadGateway, e.Status)
	assert.Equal(t, "redis operation failed: boom", e.Error())
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("conn refused"))))
}

func TestWrapUpstream(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   int
	}{
		{name: "rate limited", err: errors.New("429"), status: http.StatusTooManyRequests, want: http.StatusTooManyRequests},
		{name: "timeout", err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: http.StatusGatewayTimeout},
		{name: "server error", err: errors.New("500"), status: http.StatusInternalServerError, want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(WrapUpstream(tt.err, tt.status)))
		})
	}
}

func TestStatusAndMessageDefaults(t *testing.T) {
	plain := errors.New("plain")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(plain))
	assert.Equal(t, SystemErrorMessage, MessageOf(plain))
	assert.Equal(t, InvalidInputMessage, MessageOf(Validation("")))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "I couldn't use that question: Query too short.", UserMessage(Validation("Query too short")))
	assert.Contains(t, UserMessage(WrapUpstream(errors.New("x"), http.StatusTooManyRequests)), "busy")
	assert.Contains(t, UserMessage(errors.New("secret internals")), "something went wrong")
	assert.NotContains(t, UserMessage(errors.New("secret internals")), "secret")
}
