package jwttoken

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerCarrier_Extract(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "no header", header: "", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
		{name: "scheme and spaces", header: "Bearer    ", want: ""},
		{name: "bearer token", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lower-case scheme", header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "raw token", header: "abc.def.ghi", want: "abc.def.ghi"},
		{name: "scheme glued to token is not stripped", header: "Bearerabc.def.ghi", want: "Bearerabc.def.ghi"},
		{name: "other scheme kept whole", header: "Basic dXNlcjpwYXNz", want: "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/signin", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerCarrier{}.Extract(r))
		})
	}
}

func TestBearerCarrier_LeavesResponseAlone(t *testing.T) {
	w := httptest.NewRecorder()
	BearerCarrier{}.Attach(w, principalID, "abc")
	BearerCarrier{}.Clear(w)
	assert.Empty(t, w.Result().Cookies())
}

func TestCookieCarrier(t *testing.T) {
	carrier := CookieCarrier{Secure: true, MaxAge: time.Hour}

	t.Run("extract without cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/signin", nil)
		assert.Equal(t, "", carrier.Extract(r))
	})

	t.Run("extract token cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/signin", nil)
		r.AddCookie(&http.Cookie{Name: CookieToken, Value: "abc.def.ghi"})
		assert.Equal(t, "abc.def.ghi", carrier.Extract(r))
	})

	t.Run("attach sets id and token", func(t *testing.T) {
		w := httptest.NewRecorder()
		carrier.Attach(w, principalID, "abc.def.ghi")

		cookies := byName(w.Result().Cookies())
		require.Contains(t, cookies, CookieID)
		require.Contains(t, cookies, CookieToken)
		assert.Equal(t, principalID.String(), cookies[CookieID].Value)
		assert.Equal(t, "abc.def.ghi", cookies[CookieToken].Value)
		assert.Equal(t, 3600, cookies[CookieToken].MaxAge)
		assert.True(t, cookies[CookieToken].HttpOnly)
		assert.True(t, cookies[CookieToken].Secure)
	})

	t.Run("clear expires both cookies", func(t *testing.T) {
		w := httptest.NewRecorder()
		carrier.Clear(w)

		cookies := byName(w.Result().Cookies())
		require.Contains(t, cookies, CookieID)
		require.Contains(t, cookies, CookieToken)
		assert.Equal(t, -1, cookies[CookieID].MaxAge)
		assert.Equal(t, "", cookies[CookieToken].Value)
	})
}

func TestNewCarrier(t *testing.T) {
	c, err := NewCarrier(KindBearer, false, time.Hour)
	require.NoError(t, err)
	assert.IsType(t, BearerCarrier{}, c)

	c, err = NewCarrier(KindCookie, true, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, CookieCarrier{Secure: true, MaxAge: time.Hour}, c)

	_, err = NewCarrier("header", false, time.Hour)
	require.Error(t, err)
}

func byName(cookies []*http.Cookie) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie, len(cookies))
	for _, c := range cookies {
		out[c.Name] = c
	}
	return out
}
