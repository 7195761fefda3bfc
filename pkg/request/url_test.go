package request

import (
	"errors"
	"net"
	"net/http"
	"testing"
)

func tcpAddr(port int) net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func hostHeader(host string) http.Header {
	h := make(http.Header)
	h.Set("Host", host)
	return h
}

func TestResolve_AbsoluteForm(t *testing.T) {
	u, err := Resolve("http://example.com/over/there?name=ferret", hostHeader("ignored.example:9"), tcpAddr(1234), SchemeHTTPS)
	if err != nil {
		t.Fatalf("resolve absolute: %v", err)
	}
	if got := u.String(); got != "http://example.com/over/there?name=ferret" {
		t.Fatalf("expected target parsed as-is, got %q", got)
	}

	// headers and local address must not matter for absolute-form
	u2, err := Resolve("http://example.com/over/there?name=ferret", nil, nil, SchemeHTTP)
	if err != nil {
		t.Fatalf("resolve absolute without context: %v", err)
	}
	if u2.String() != u.String() {
		t.Fatalf("absolute-form not idempotent: %q vs %q", u2, u)
	}
}

func TestResolve_OriginForm(t *testing.T) {
	u, err := Resolve("/path", hostHeader("example.com"), tcpAddr(8080), SchemeHTTP)
	if err != nil {
		t.Fatalf("resolve origin: %v", err)
	}
	if got := u.String(); got != "http://example.com:8080/path" {
		t.Fatalf("expected http://example.com:8080/path, got %q", got)
	}
	if u.Hostname() != "example.com" || u.Port() != "8080" {
		t.Fatalf("unexpected authority %q", u.Host)
	}
}

func TestResolve_OriginForm_HostPortIgnored(t *testing.T) {
	// the port in the Host header loses to the listener's port
	u, err := Resolve("/path", hostHeader("example.com:9999"), tcpAddr(8080), SchemeHTTP)
	if err != nil {
		t.Fatalf("resolve origin: %v", err)
	}
	if got := u.String(); got != "http://example.com:8080/path" {
		t.Fatalf("expected listener port to win, got %q", got)
	}
}

func TestResolve_OriginForm_QueryAndScheme(t *testing.T) {
	u, err := Resolve("/search?q=go&page=2", hostHeader("api.example.com"), tcpAddr(443), SchemeHTTPS)
	if err != nil {
		t.Fatalf("resolve origin: %v", err)
	}
	if got := u.String(); got != "https://api.example.com:443/search?q=go&page=2" {
		t.Fatalf("unexpected url %q", got)
	}
	if u.RawQuery != "q=go&page=2" {
		t.Fatalf("query lost: %q", u.RawQuery)
	}
}

func TestResolve_OriginForm_IPv6Host(t *testing.T) {
	u, err := Resolve("/x", hostHeader("[::1]:9090"), tcpAddr(8080), SchemeHTTP)
	if err != nil {
		t.Fatalf("resolve origin ipv6: %v", err)
	}
	if got := u.String(); got != "http://[::1]:8080/x" {
		t.Fatalf("unexpected url %q", got)
	}

	u2, err := Resolve("/x", hostHeader("[::1]"), tcpAddr(8080), SchemeHTTP)
	if err != nil {
		t.Fatalf("resolve origin bare ipv6: %v", err)
	}
	if u2.String() != u.String() {
		t.Fatalf("bare ipv6 host diverged: %q", u2)
	}
}

func TestResolve_MissingHost(t *testing.T) {
	_, err := Resolve("/path", make(http.Header), tcpAddr(8080), SchemeHTTP)
	if !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost, got %v", err)
	}
	_, err = Resolve("/path", nil, tcpAddr(8080), SchemeHTTP)
	if !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost for nil header, got %v", err)
	}
}

func TestResolve_UnsupportedForms(t *testing.T) {
	targets := []string{
		"*",               // asterisk-form
		"example.com:443", // authority-form
		"",
		"%zz",
	}
	for _, target := range targets {
		_, err := Resolve(target, hostHeader("example.com"), tcpAddr(8080), SchemeHTTP)
		if !errors.Is(err, ErrUnsupportedTarget) {
			t.Fatalf("target %q: expected ErrUnsupportedTarget, got %v", target, err)
		}
	}
}

func TestResolve_MalformedAbsolute(t *testing.T) {
	_, err := Resolve("http://exa mple.com/", nil, nil, SchemeHTTP)
	if err == nil {
		t.Fatalf("expected parse error for malformed absolute target")
	}
}

func TestResolve_NoLocalPort(t *testing.T) {
	_, err := Resolve("/p", hostHeader("example.com"), nil, SchemeHTTP)
	if err == nil {
		t.Fatalf("expected error when no local address is available")
	}
}
