package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSPAHandler_ServesIndex(t *testing.T) {
	h := SPAHandler()

	for _, path := range []string{"/", "/chat", "/some/deep/link"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "EduBot") {
			t.Errorf("%s: expected index document", path)
		}
	}
}

func TestSPAHandler_IndexOffersLogoutAndRestore(t *testing.T) {
	rec := httptest.NewRecorder()
	SPAHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	for _, want := range []string{`id="logout"`, `type: "load_chat", id: restoreId`} {
		if !strings.Contains(body, want) {
			t.Errorf("index document missing %q", want)
		}
	}
}
