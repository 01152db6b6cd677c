package catalog

import (
	"net/http"
	"strings"
	"time"

	"github.com/pitabwire/util"
)

// TransportOption configures the logging transport.
type TransportOption func(*loggingTransport)

// loggingTransport logs every upstream call made for category data.
type loggingTransport struct {
	transport  http.RoundTripper
	logHeaders bool
}

// NewLoggingTransport wraps transport so each request and its outcome are
// logged. Headers are left out unless WithTransportLogHeaders is given.
func NewLoggingTransport(transport http.RoundTripper, opts ...TransportOption) http.RoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}

	t := &loggingTransport{transport: transport}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithTransportLogHeaders enables header logging.
// Note: headers may carry credentials of the upstream API.
func WithTransportLogHeaders(enabled bool) TransportOption {
	return func(t *loggingTransport) {
		t.logHeaders = enabled
	}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	logger := util.Log(req.Context()).WithFields(map[string]any{
		"method": req.Method,
		"url":    req.URL.String(),
	})
	if t.logHeaders {
		logger = logger.WithField("headers", flattenHeaders(req.Header))
	}
	logger.Debug("category request sent")

	resp, err := t.transport.RoundTrip(req)

	logger = logger.WithField("duration", time.Since(start).String())
	if err != nil {
		logger.WithError(err).Warn("category request failed")
		return resp, err
	}

	logger.WithFields(map[string]any{
		"status":     resp.StatusCode,
		"statusText": http.StatusText(resp.StatusCode),
	}).Debug("category response received")

	return resp, nil
}

func flattenHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) > 0 {
			out[name] = strings.Join(values, " , ")
		}
	}
	return out
}
