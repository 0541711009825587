package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/search", nil)
	h.ServeHTTP(rr, req)

	if seen == "" {
		t.Error("expected a generated request ID in the request context")
	}
	if got := rr.Header().Get(headerRequestID); got != seen {
		t.Errorf("response header %s = %q, want %q to match the context value", headerRequestID, got, seen)
	}
}

func TestRequestIDReusesIncomingHeader(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/search", nil)
	req.Header.Set(headerRequestID, "client-supplied-id")
	h.ServeHTTP(rr, req)

	if seen != "client-supplied-id" {
		t.Errorf("seen = %q, want the incoming header value to be reused", seen)
	}
	if got := rr.Header().Get(headerRequestID); got != "client-supplied-id" {
		t.Errorf("response header = %q, want client-supplied-id echoed back", got)
	}
}

func TestGetRequestIDEmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/search", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("GetRequestID = %q, want empty", got)
	}
}
