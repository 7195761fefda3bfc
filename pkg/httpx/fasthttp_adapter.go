package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"

	"corridor/pkg/logger"
	"corridor/pkg/request"
	"corridor/pkg/telemetry"
)

// FastHTTPAdapter adapts a corridor Handler into a fasthttp request
// handler. fasthttp recycles the RequestCtx and every buffer hanging
// off it as soon as the handler returns, so the adapter leases the
// body to the request and releases the lease on return; a handler that
// smuggles the request elsewhere gets ErrBodyUnavailable instead of
// recycled bytes.
func FastHTTPAdapter(h Handler, opts ...Option) fasthttp.RequestHandler {
	cfg := newAdapterConfig(opts)
	return func(ctx *fasthttp.RequestCtx) {
		hdr := make(http.Header)
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			hdr.Add(string(k), string(v))
		})
		if hdr.Get("Host") == "" && len(ctx.Host()) > 0 {
			hdr.Set("Host", string(ctx.Host()))
		}

		raw := request.Raw{
			Method:     string(ctx.Method()),
			Target:     string(ctx.RequestURI()),
			Header:     hdr,
			RemoteAddr: ctx.RemoteAddr(),
		}

		local := cfg.localAddr
		if local == nil {
			local = ctx.LocalAddr()
		}
		scheme := cfg.scheme
		if scheme == "" {
			scheme = request.SchemeHTTP
			if ctx.IsTLS() {
				scheme = request.SchemeHTTPS
			}
		}

		var req *request.Request
		var err error
		if cfg.headerOnly {
			req, err = request.NewHeaderOnly(raw, local, scheme)
		} else {
			lease := request.NewBufferLease()
			defer lease.Release()
			raw.Body = boundedBody(bytes.NewReader(ctx.PostBody()), cfg.maxBodyBytes)
			raw.Buffer = lease
			req, err = request.New(raw, local, scheme)
		}
		if err != nil {
			logger.Warn("request_rejected", "target", raw.Target, "remote", ctx.RemoteAddr().String(), "err", err)
			telemetry.CountRejected("unresolvable_target")
			writeFastHTTPError(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		rw := &fastHTTPResponseWriter{ctx: ctx, header: make(http.Header)}
		h.Serve(rw, req)
	}
}

func writeFastHTTPError(ctx *fasthttp.RequestCtx, status int, msg string) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	out, _ := json.Marshal(map[string]string{"error": msg})
	ctx.SetBody(out)
}

type fastHTTPResponseWriter struct {
	ctx    *fasthttp.RequestCtx
	header http.Header
	status int
}

func (f *fastHTTPResponseWriter) Header() http.Header { return f.header }

func (f *fastHTTPResponseWriter) WriteHeader(status int) {
	if f.status != 0 {
		return
	}
	f.status = status
	// flush buffered headers into the fasthttp response
	for k, vals := range f.header {
		for _, v := range vals {
			f.ctx.Response.Header.Add(k, v)
		}
	}
	f.ctx.SetStatusCode(status)
}

func (f *fastHTTPResponseWriter) Write(b []byte) (int, error) {
	if f.status == 0 {
		f.WriteHeader(http.StatusOK)
	}
	return f.ctx.Write(b)
}
