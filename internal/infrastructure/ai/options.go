package ai

import (
	"net/http"
	"time"
)

// Option ajusta los adaptadores HTTP (endpoint para pruebas o proxies, cliente propio).
type Option func(*httpOptions)

type httpOptions struct {
	endpoint string
	client   *http.Client
}

// WithEndpoint reemplaza la URL base del proveedor.
func WithEndpoint(url string) Option {
	return func(o *httpOptions) { o.endpoint = url }
}

// WithHTTPClient usa un cliente HTTP propio.
func WithHTTPClient(c *http.Client) Option {
	return func(o *httpOptions) { o.client = c }
}

func applyOptions(defaultEndpoint string, timeout time.Duration, opts []Option) httpOptions {
	o := httpOptions{endpoint: defaultEndpoint}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		// Timeout de red; el use case impone además un context.WithTimeout.
		o.client = &http.Client{Timeout: timeout}
	}
	return o
}
