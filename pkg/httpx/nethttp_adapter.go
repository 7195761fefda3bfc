package httpx

import (
	"io"
	"net"
	"net/http"
	"net/netip"

	"corridor/pkg/logger"
	"corridor/pkg/request"
	"corridor/pkg/telemetry"
	"corridor/pkg/utils"
)

// NetHTTPAdapter adapts a corridor Handler into a standard net/http
// handler. The request target is taken from the request line, the
// local address from the server connection, and the scheme from the
// TLS state, so origin-form targets resolve exactly as they arrived on
// the wire. Construction failures are answered with 400 before the
// handler runs.
func NetHTTPAdapter(h Handler, opts ...Option) http.Handler {
	cfg := newAdapterConfig(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := request.Raw{
			Method:     r.Method,
			Target:     rawTarget(r),
			Header:     headerWithHost(r),
			RemoteAddr: parseNetAddr(r.RemoteAddr),
		}

		var req *request.Request
		var err error
		if cfg.headerOnly {
			req, err = request.NewHeaderOnly(raw, localAddr(r, cfg), schemeOf(r, cfg))
		} else {
			// the body is only valid while the server connection is
			// being handled; the lease ends with this function
			lease := request.NewBufferLease()
			defer lease.Release()
			raw.Body = boundedBody(r.Body, cfg.maxBodyBytes)
			raw.Buffer = lease
			req, err = request.New(raw, localAddr(r, cfg), schemeOf(r, cfg))
		}
		if err != nil {
			logger.Warn("request_rejected", "target", raw.Target, "remote", r.RemoteAddr, "err", err)
			telemetry.CountRejected("unresolvable_target")
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.Serve(w, req)
	})
}

// rawTarget returns the target exactly as it appeared on the request
// line. Client-built requests (tests, httputil) leave RequestURI
// empty; reconstruct it from the parsed URL then.
func rawTarget(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	return r.URL.RequestURI()
}

// headerWithHost clones the inbound headers and restores the Host
// header net/http moved into r.Host.
func headerWithHost(r *http.Request) http.Header {
	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	if h.Get("Host") == "" && r.Host != "" {
		h.Set("Host", r.Host)
	}
	return h
}

func localAddr(r *http.Request, cfg adapterConfig) net.Addr {
	if cfg.localAddr != nil {
		return cfg.localAddr
	}
	if a, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		return a
	}
	return nil
}

func schemeOf(r *http.Request, cfg adapterConfig) string {
	if cfg.scheme != "" {
		return cfg.scheme
	}
	if r.TLS != nil {
		return request.SchemeHTTPS
	}
	return request.SchemeHTTP
}

func parseNetAddr(s string) net.Addr {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return net.TCPAddrFromAddrPort(ap)
	}
	return strAddr(s)
}

func boundedBody(body io.Reader, max int64) io.Reader {
	if body == nil {
		return nil
	}
	if max > 0 {
		return io.LimitReader(body, max)
	}
	return body
}
