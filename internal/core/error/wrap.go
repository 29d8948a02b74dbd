package errx

import (
	"context"
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to the unified Error type with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapUpstream maps a failed NBA API call to a gateway error. A 429 from the
// upstream becomes 429 so callers can distinguish throttling.
func WrapUpstream(err error, upstreamStatus int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, http.StatusGatewayTimeout, UpstreamErrorMessage)
	}
	if upstreamStatus == http.StatusTooManyRequests {
		return New(err, http.StatusTooManyRequests, RateLimitedMessage)
	}
	return New(err, http.StatusBadGateway, UpstreamErrorMessage)
}

// WrapCache maps a cache backend failure.
func WrapCache(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, CacheErrorMessage)
}
