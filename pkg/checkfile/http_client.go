package checkfile

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// HTTPClientOptions contains the transport settings for the monitoring api.
type HTTPClientOptions struct {
	tlsConfig  *tls.Config
	reqTimeout time.Duration
}

// NewHTTPClientOptions returns options with tls 1.2 as minimum version.
func NewHTTPClientOptions(verifySSL bool, timeout time.Duration) *HTTPClientOptions {
	return &HTTPClientOptions{
		tlsConfig: &tls.Config{
			InsecureSkipVerify: !verifySSL, //nolint:gosec // disabled with --no-ssl only
			MinVersion:         tls.VersionTLS12,
		},
		reqTimeout: timeout,
	}
}

func httpClient(options *HTTPClientOptions) *http.Client {
	timeout := options.reqTimeout
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: options.tlsConfig,
			DialContext: (&net.Dialer{
				Timeout: timeout,
			}).DialContext,
			ResponseHeaderTimeout: timeout,
			TLSHandshakeTimeout:   timeout,
			IdleConnTimeout:       timeout,
		},
	}

	return client
}
