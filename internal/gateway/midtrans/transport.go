package midtrans

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"Ecotrack/internal/logger"
)

// rebaseTransport troca o host fixo do SDK (app.* para Snap, api.* para Core API)
// pelas URLs configuradas, permitindo proxies e servidores de teste.
type rebaseTransport struct {
	snap *url.URL
	api  *url.URL
	next http.RoundTripper
}

func NewRebaseTransport(snapBaseURL, apiBaseURL string, next http.RoundTripper) http.RoundTripper {
	t := &rebaseTransport{next: next}
	if u, err := url.Parse(strings.TrimRight(snapBaseURL, "/")); err == nil && u.Host != "" {
		t.snap = u
	}
	if u, err := url.Parse(strings.TrimRight(apiBaseURL, "/")); err == nil && u.Host != "" {
		t.api = u
	}
	return t
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target := t.api
	if strings.HasPrefix(req.URL.Host, "app.") {
		target = t.snap
	}
	if target == nil || target.Host == req.URL.Host {
		return t.next.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	out.URL.Scheme = target.Scheme
	out.URL.Host = target.Host
	out.URL.Path = target.Path + req.URL.Path
	out.URL.RawPath = ""
	out.Host = target.Host
	return t.next.RoundTrip(out)
}

type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req.WithContext(t.ctx))
}

// sdkLogger encaminha os logs do SDK para o zerolog.
type sdkLogger struct{}

func (sdkLogger) Error(format string, a ...interface{}) {
	logger.Error().Str("component", "midtrans").Msg(fmt.Sprintf(format, a...))
}

func (sdkLogger) Info(format string, a ...interface{}) {
	logger.Debug().Str("component", "midtrans").Msg(fmt.Sprintf(format, a...))
}

func (sdkLogger) Debug(format string, a ...interface{}) {
	logger.Debug().Str("component", "midtrans").Msg(fmt.Sprintf(format, a...))
}
