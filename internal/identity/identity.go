// Package identity provides anonymous per-device identity primitives.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	DeviceCookieName   = "edubot_device_id"
	TabHeaderName      = "X-EduBot-Tab-ID"
	TabQueryParam      = "tab_id"
	DefaultTabIDValue  = "default"
	deviceCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const (
	deviceIDKey contextKey = iota
	tabIDKey
)

var (
	deviceIDPattern = regexp.MustCompile(`^dev_[a-f0-9]{32}$`)
	tabIDPattern    = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)
)

// DeviceIDFromContext extracts the device ID from the request context.
func DeviceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(deviceIDKey).(string); ok {
		return v
	}
	return ""
}

// TabIDFromContext extracts the browser tab ID from the request context.
func TabIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tabIDKey).(string); ok {
		return v
	}
	return DefaultTabIDValue
}

// WithDevice returns a copy of ctx carrying the given device and tab IDs.
func WithDevice(ctx context.Context, deviceID, tabID string) context.Context {
	ctx = context.WithValue(ctx, deviceIDKey, deviceID)
	return context.WithValue(ctx, tabIDKey, sanitizeTabID(tabID))
}

func generateDeviceID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate device id: %w", err)
	}
	return "dev_" + hex.EncodeToString(buf), nil
}

// IsValidDeviceID reports whether id has the dev_<32 hex> form.
func IsValidDeviceID(id string) bool {
	return deviceIDPattern.MatchString(id)
}

func sanitizeTabID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !tabIDPattern.MatchString(id) {
		return DefaultTabIDValue
	}
	return id
}

func setDeviceCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(deviceCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(deviceCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// getOrCreateDeviceID returns the cookie's device id, minting one when absent
// or malformed. The cookie is refreshed on every request.
func getOrCreateDeviceID(w http.ResponseWriter, r *http.Request, isDev bool) (string, error) {
	if c, err := r.Cookie(DeviceCookieName); err == nil && IsValidDeviceID(c.Value) {
		setDeviceCookie(w, c.Value, !isDev)
		return c.Value, nil
	}

	id, err := generateDeviceID()
	if err != nil {
		return "", err
	}
	setDeviceCookie(w, id, !isDev)
	return id, nil
}

func tabIDFromRequest(r *http.Request) string {
	tid := r.Header.Get(TabHeaderName)
	if tid == "" {
		tid = r.URL.Query().Get(TabQueryParam)
	}
	return sanitizeTabID(tid)
}

// Middleware injects the anonymous device identity and per-request tab ID.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, err := getOrCreateDeviceID(w, r, isDev)
			if err != nil {
				http.Error(w, `{"success":false,"message":"failed to establish device identity"}`, http.StatusInternalServerError)
				return
			}

			ctx := WithDevice(r.Context(), deviceID, tabIDFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IPFromRequest returns a normalized remote IP for optional request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
