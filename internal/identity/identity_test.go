package identity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureIdentity(t *testing.T, req *http.Request) (deviceID, tabID string, rec *httptest.ResponseRecorder) {
	t.Helper()
	h := Middleware(true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deviceID = DeviceIDFromContext(r.Context())
		tabID = TabIDFromContext(r.Context())
	}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return deviceID, tabID, rec
}

func deviceCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == DeviceCookieName {
			return c
		}
	}
	t.Fatalf("cookie %s not set", DeviceCookieName)
	return nil
}

func TestMiddleware_MintsDeviceID(t *testing.T) {
	deviceID, tabID, rec := captureIdentity(t, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, IsValidDeviceID(deviceID), deviceID)
	assert.Equal(t, DefaultTabIDValue, tabID)

	c := deviceCookie(t, rec)
	assert.Equal(t, deviceID, c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
}

func TestMiddleware_ReusesValidCookie(t *testing.T) {
	existing := "dev_" + strings.Repeat("ab", 16)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: existing})

	deviceID, _, rec := captureIdentity(t, req)

	assert.Equal(t, existing, deviceID)
	assert.Equal(t, existing, deviceCookie(t, rec).Value)
}

func TestMiddleware_ReplacesMalformedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "anon_123"})

	deviceID, _, _ := captureIdentity(t, req)

	assert.NotEqual(t, "anon_123", deviceID)
	assert.True(t, IsValidDeviceID(deviceID))
}

func TestMiddleware_TabID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{name: "header", header: "tab-1", want: "tab-1"},
		{name: "query", query: "tab-2", want: "tab-2"},
		{name: "header wins", header: "tab-h", query: "tab-q", want: "tab-h"},
		{name: "invalid", header: "bad tab/../", want: DefaultTabIDValue},
		{name: "missing", want: DefaultTabIDValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/"
			if tt.query != "" {
				target += "?" + TabQueryParam + "=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set(TabHeaderName, tt.header)
			}

			_, tabID, _ := captureIdentity(t, req)
			assert.Equal(t, tt.want, tabID)
		})
	}
}

func TestContextDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, DeviceIDFromContext(req.Context()))
	assert.Equal(t, DefaultTabIDValue, TabIDFromContext(req.Context()))

	ctx := WithDevice(req.Context(), "dev_x", "")
	require.Equal(t, "dev_x", DeviceIDFromContext(ctx))
	assert.Equal(t, DefaultTabIDValue, TabIDFromContext(ctx))
}

func TestIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", IPFromRequest(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", IPFromRequest(req))
}
