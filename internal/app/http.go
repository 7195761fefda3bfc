package app

import (
	"context"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"corridor/pkg/api"
	"corridor/pkg/banner"
	"corridor/pkg/config"
	"corridor/pkg/httpx"
	"corridor/pkg/logger"
	"corridor/pkg/middleware"
	"corridor/pkg/telemetry"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "none" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "unknown" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.eff, verStr)
}

// pipelineMiddleware assembles the middleware chain from the effective
// config. Order matters: request IDs come first so every later log
// line carries one; Recover sits inside AccessLog and Metrics so a
// panic still produces a logged, observed 500; CORS answers preflights
// before Auth would reject them; RateLimit runs after Auth to key
// buckets by API key.
func (a *App) pipelineMiddleware() []middleware.Middleware {
	sec := a.eff.Config.Security
	return []middleware.Middleware{
		middleware.WithRequestID(),
		middleware.AccessLog(),
		middleware.Metrics(),
		middleware.Recover(),
		middleware.CORS(middleware.CORSConfig{AllowedOrigins: append([]string{}, sec.CORS.AllowedOrigins...)}),
		middleware.Auth(middleware.AuthConfig{
			BackendKeys:  config.GetBackendKeys(),
			FrontendKeys: config.GetFrontendKeys(),
			AdminKeys:    config.GetAdminKeys(),
			IPWhitelist:  append([]string{}, sec.IPWhitelist...),
		}),
		middleware.RateLimit(middleware.RateLimitConfig{RPS: sec.RateLimit.RPS, Burst: sec.RateLimit.Burst}),
	}
}

// startHTTP starts the configured engine in a goroutine and returns a
// channel carrying any fatal server error.
func (a *App) startHTTP() <-chan error {
	mws := a.pipelineMiddleware()
	var opts []httpx.Option
	if n := a.eff.Config.Server.MaxBodyBytes.Int64(); n > 0 {
		opts = append(opts, httpx.WithMaxBodyBytes(n))
	}

	cert := a.eff.Config.Server.TLS.CertFile
	key := a.eff.Config.Server.TLS.KeyFile
	errCh := make(chan error, 1)

	if a.eff.Config.Server.Engine == "fasthttp" {
		a.fsrv = a.newFastHTTPServer(mws, opts...)
		go func() {
			logger.Info("server_listening", "addr", a.eff.Addr, "engine", "fasthttp")
			if cert != "" && key != "" {
				errCh <- a.fsrv.ListenAndServeTLS(a.eff.Addr, cert, key)
			} else {
				errCh <- a.fsrv.ListenAndServe(a.eff.Addr)
			}
		}()
		return errCh
	}

	a.srv = &http.Server{Addr: a.eff.Addr, Handler: api.Handler(mws, opts...)}
	go func() {
		logger.Info("server_listening", "addr", a.eff.Addr, "engine", "nethttp")
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}

// newFastHTTPServer builds the fasthttp engine around the corridor
// dispatcher. Probes run through a header-only pipeline, /metrics is
// bridged to the promhttp handler, everything else reads live bodies.
func (a *App) newFastHTTPServer(mws []middleware.Middleware, opts ...httpx.Option) *fasthttp.Server {
	pipeline := httpx.FastHTTPAdapter(api.Dispatch(mws...), opts...)
	probes := httpx.FastHTTPAdapter(api.Dispatch(mws...), append([]httpx.Option{httpx.WithHeaderOnly()}, opts...)...)
	metrics := fasthttpadaptor.NewFastHTTPHandler(telemetry.Handler())

	h := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/metrics":
			metrics(ctx)
		case "/healthz", "/readyz", "/":
			probes(ctx)
		default:
			pipeline(ctx)
		}
	}

	srv := &fasthttp.Server{
		Handler:      h,
		Name:         "corridor",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	if n := a.eff.Config.Server.MaxBodyBytes.Int64(); n > 0 {
		srv.MaxRequestBodySize = int(n)
	}
	return srv
}

// stopHTTP drains in-flight requests before returning, bounded by a
// short deadline.
func (a *App) stopHTTP() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			logger.Warn("server_shutdown_incomplete", "engine", "nethttp", "error", err)
		}
	}
	if a.fsrv != nil {
		if err := a.fsrv.ShutdownWithContext(ctx); err != nil {
			logger.Warn("server_shutdown_incomplete", "engine", "fasthttp", "error", err)
		}
	}
	logger.Info("server_stopped")
}
