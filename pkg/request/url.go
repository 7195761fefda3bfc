package request

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Scheme names handed to Resolve by connection adapters.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// Resolve turns a raw request target into a fully qualified URL.
//
// Absolute-form targets ("http://host/path") are parsed as-is; headers
// and the local address play no part. Origin-form targets ("/path")
// are resolved against the Host header and the listening address: the
// resulting URL is scheme://host:port/path where host comes from the
// Host header (any port in the header is ignored) and port is always
// the local address port. Asterisk-form and authority-form targets are
// rejected with ErrUnsupportedTarget.
//
// Resolve performs no I/O and never mutates header.
func Resolve(target string, header http.Header, localAddr net.Addr, scheme string) (*url.URL, error) {
	if strings.HasPrefix(target, "/") {
		return resolveOrigin(target, header, localAddr, scheme)
	}
	if target == "*" || target == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTarget, target)
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", ErrUnsupportedTarget, target, err)
	}
	// authority-form (CONNECT example.com:443) parses with an empty
	// Host, as does any other non-URI token
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTarget, target)
	}
	return u, nil
}

func resolveOrigin(path string, header http.Header, localAddr net.Addr, scheme string) (*url.URL, error) {
	host := header.Get("Host")
	if host == "" {
		return nil, ErrMissingHost
	}
	// strip any port the client put in the Host header; the request
	// reached this listener, so the listener's port is authoritative
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		// bare bracketed IPv6 literal, JoinHostPort re-brackets it
		host = host[1 : len(host)-1]
	}
	port, err := localPort(localAddr)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(scheme + "://" + net.JoinHostPort(host, port) + path)
	if err != nil {
		return nil, fmt.Errorf("request: resolve %q against host %q: %w", path, host, err)
	}
	return u, nil
}

func localPort(addr net.Addr) (string, error) {
	if addr == nil {
		return "", fmt.Errorf("request: no local address to resolve against")
	}
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "", fmt.Errorf("request: local address %q carries no port: %w", addr.String(), err)
	}
	return port, nil
}
