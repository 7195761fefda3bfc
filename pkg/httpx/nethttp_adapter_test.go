package httpx

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"corridor/pkg/request"
)

func TestNetHTTPAdapter_OriginFormAgainstListener(t *testing.T) {
	var seen *request.Request
	h := HandlerFunc(func(w ResponseWriter, r *request.Request) {
		seen = r
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(NetHTTPAdapter(h))
	defer srv.Close()

	res, err := srv.Client().Get(srv.URL + "/path?x=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if seen == nil {
		t.Fatalf("handler never ran")
	}

	// the URL port must be the listener's, regardless of the Host header
	_, port, _ := net.SplitHostPort(srv.Listener.Addr().String())
	want := "http://127.0.0.1:" + port + "/path?x=1"
	if got := seen.URL.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if seen.LocalAddr == nil || seen.RemoteAddr == nil {
		t.Fatalf("connection endpoints missing: %v / %v", seen.LocalAddr, seen.RemoteAddr)
	}
}

func TestNetHTTPAdapter_HostHeaderNamesAuthority(t *testing.T) {
	var gotURL string
	h := HandlerFunc(func(w ResponseWriter, r *request.Request) {
		gotURL = r.URL.String()
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(NetHTTPAdapter(h))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api", nil)
	req.Host = "svc.internal:9999"
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	res.Body.Close()

	_, port, _ := net.SplitHostPort(srv.Listener.Addr().String())
	want := "http://svc.internal:" + port + "/api"
	if gotURL != want {
		t.Fatalf("expected %q, got %q", want, gotURL)
	}
}

func TestNetHTTPAdapter_BodyStream(t *testing.T) {
	payload := strings.Repeat("chunk-", 64)
	var got []byte
	h := HandlerFunc(func(w ResponseWriter, r *request.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		got = b
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(NetHTTPAdapter(h))
	defer srv.Close()

	res, err := srv.Client().Post(srv.URL+"/upload", "text/plain", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	if string(got) != payload {
		t.Fatalf("body mangled: %d bytes", len(got))
	}
}

func TestNetHTTPAdapter_LeaseEndsWithHandler(t *testing.T) {
	var escaped *request.Request
	h := HandlerFunc(func(w ResponseWriter, r *request.Request) {
		escaped = r
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(NetHTTPAdapter(h))
	defer srv.Close()

	res, err := srv.Client().Post(srv.URL+"/x", "text/plain", strings.NewReader("late"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()

	if _, err := escaped.Body.Read(make([]byte, 4)); !errors.Is(err, request.ErrBodyUnavailable) {
		t.Fatalf("expected ErrBodyUnavailable after handler returned, got %v", err)
	}
}

func TestNetHTTPAdapter_HeaderOnly(t *testing.T) {
	h := HandlerFunc(func(w ResponseWriter, r *request.Request) {
		if _, err := r.Body.Read(make([]byte, 1)); !errors.Is(err, request.ErrBodyUnavailable) {
			t.Errorf("probe endpoint saw a live body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(NetHTTPAdapter(h, WithHeaderOnly()))
	defer srv.Close()

	res, err := srv.Client().Post(srv.URL+"/healthz", "text/plain", strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
}

func TestNetHTTPAdapter_MaxBodyBytes(t *testing.T) {
	var n int
	h := HandlerFunc(func(w ResponseWriter, r *request.Request) {
		b, _ := io.ReadAll(r.Body)
		n = len(b)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(NetHTTPAdapter(h, WithMaxBodyBytes(5)))
	defer srv.Close()

	res, err := srv.Client().Post(srv.URL+"/x", "text/plain", strings.NewReader("0123456789"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	res.Body.Close()
	if n != 5 {
		t.Fatalf("expected 5 readable bytes, got %d", n)
	}
}

func TestNetHTTPAdapter_RejectsUnresolvableTargets(t *testing.T) {
	h := HandlerFunc(func(w ResponseWriter, r *request.Request) {
		t.Errorf("handler ran for a rejected request")
	})
	adapter := NetHTTPAdapter(h)

	// asterisk-form
	rec := httptest.NewRecorder()
	adapter.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "*", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("asterisk-form: expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("expected json error body, got %q", rec.Body.String())
	}

	// origin-form without a Host header
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Host = ""
	adapter.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing host: expected 400, got %d", rec.Code)
	}
}

func TestNetHTTPAdapter_AbsoluteFormTarget(t *testing.T) {
	var gotURL string
	h := HandlerFunc(func(w ResponseWriter, r *request.Request) {
		gotURL = r.URL.String()
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	NetHTTPAdapter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://other.example/abs?a=b", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotURL != "http://other.example/abs?a=b" {
		t.Fatalf("absolute target not kept: %q", gotURL)
	}
}
