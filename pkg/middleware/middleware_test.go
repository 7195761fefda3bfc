package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"corridor/pkg/httpx"
	"corridor/pkg/request"
)

func testRequest(t *testing.T, method, target string) *request.Request {
	t.Helper()
	h := make(http.Header)
	h.Set("Host", "example.com")
	req, err := request.New(request.Raw{
		Method:     method,
		Target:     target,
		Header:     h,
		RemoteAddr: &net.TCPAddr{IP: net.IPv4(203, 0, 113, 9), Port: 41000},
	}, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}, request.SchemeHTTP)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return req
}

func okHandler() httpx.Handler {
	return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChain_OutermostFirst(t *testing.T) {
	var order []string
	mk := func(name string) Middleware {
		return func(next httpx.Handler) httpx.Handler {
			return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
				order = append(order, name)
				next.Serve(w, r)
			})
		}
	}
	h := Chain(httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
		order = append(order, "handler")
	}), mk("a"), mk("b"), nil, mk("c"))

	h.Serve(httptest.NewRecorder(), testRequest(t, "GET", "/x"))

	want := "a,b,c,handler"
	if got := strings.Join(order, ","); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestWithRequestID(t *testing.T) {
	var fromExt RequestID
	h := Chain(httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
		id, ok := RequestIDFrom(r)
		if !ok {
			t.Errorf("request id missing from extensions")
		}
		fromExt = id
		w.WriteHeader(http.StatusOK)
	}), WithRequestID())

	rec := httptest.NewRecorder()
	h.Serve(rec, testRequest(t, "GET", "/x"))

	echoed := rec.Header().Get("X-Request-Id")
	if echoed == "" || echoed != string(fromExt) {
		t.Fatalf("header %q does not match extension %q", echoed, fromExt)
	}

	rec2 := httptest.NewRecorder()
	h.Serve(rec2, testRequest(t, "GET", "/x"))
	if rec2.Header().Get("X-Request-Id") == echoed {
		t.Fatalf("request ids repeat")
	}
}

func TestRecover_PanicBecomesInternalError(t *testing.T) {
	h := Chain(httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
		panic("boom")
	}), Recover())

	rec := httptest.NewRecorder()
	h.Serve(rec, testRequest(t, "GET", "/x"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("expected json error body, got %q", rec.Body.String())
	}
}

func TestRecover_StartedResponseLeftAlone(t *testing.T) {
	h := Chain(httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("after write")
	}), Recover())

	rec := httptest.NewRecorder()
	h.Serve(rec, testRequest(t, "GET", "/x"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("recover rewrote a started response: %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := Chain(okHandler(), CORS(CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}))

	req := testRequest(t, "GET", "/x")
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.Serve(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("allowed origin not echoed")
	}

	// unknown origin gets no cors headers
	req2 := testRequest(t, "GET", "/x")
	req2.Header.Set("Origin", "https://evil.example.com")
	rec2 := httptest.NewRecorder()
	h.Serve(rec2, req2)
	if rec2.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("disallowed origin echoed")
	}

	// preflight short-circuits
	pre := testRequest(t, "OPTIONS", "/x")
	pre.Header.Set("Origin", "https://app.example.com")
	rec3 := httptest.NewRecorder()
	reached := false
	Chain(httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
		reached = true
	}), CORS(CORSConfig{AllowedOrigins: []string{"*"}})).Serve(rec3, pre)
	if rec3.Code != http.StatusNoContent || reached {
		t.Fatalf("preflight not short-circuited: code=%d reached=%v", rec3.Code, reached)
	}
}

func TestAccessLog_PassesThrough(t *testing.T) {
	h := Chain(httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}), WithRequestID(), AccessLog())

	rec := httptest.NewRecorder()
	h.Serve(rec, testRequest(t, "GET", "/teapot"))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status lost through access log: %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("body lost through access log: %q", rec.Body.String())
	}
}

func TestMetrics_PassesThrough(t *testing.T) {
	h := Chain(okHandler(), Metrics())
	rec := httptest.NewRecorder()
	h.Serve(rec, testRequest(t, "GET", "/x"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status lost through metrics: %d", rec.Code)
	}
}
