package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware_PinsTimeForTheRequest(t *testing.T) {
	var first, second time.Time
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		second = Now(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	before := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
	after := time.Now()

	assert.False(t, first.Before(before))
	assert.False(t, first.After(after))
	assert.Equal(t, first, second)
}

func TestMiddleware_KeepsInjectedTime(t *testing.T) {
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	var captured time.Time
	handler := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = Now(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(WithTime(req.Context(), fixed)))

	assert.Equal(t, fixed, captured)
}

func TestNow_FallsBackToWallClock(t *testing.T) {
	before := time.Now()
	result := Now(context.Background())
	assert.False(t, result.Before(before))
}

func TestWithTime_Overrides(t *testing.T) {
	original := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	replaced := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	ctx := WithTime(WithTime(context.Background(), original), replaced)
	assert.Equal(t, replaced, Now(ctx))
}
