package llm

import (
	"net/http"
	"net/url"
	"time"
)

// proxyFunc picks the configured proxy for a request. With neither proxy
// set it defers to HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
func proxyFunc(httpProxy, httpsProxy string) (func(*http.Request) (*url.URL, error), error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment, nil
	}

	var httpURL, httpsURL *url.URL
	var err error
	if httpProxy != "" {
		if httpURL, err = url.Parse(httpProxy); err != nil {
			return nil, err
		}
	}
	if httpsProxy != "" {
		if httpsURL, err = url.Parse(httpsProxy); err != nil {
			return nil, err
		}
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsURL != nil {
			return httpsURL, nil
		}
		if httpURL != nil {
			return httpURL, nil
		}
		return http.ProxyFromEnvironment(req)
	}, nil
}

// newHTTPClient builds the provider's HTTP client
func newHTTPClient(config Config) (*http.Client, error) {
	proxy, err := proxyFunc(config.HTTPProxy, config.HTTPSProxy)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	// The request context carries the real deadline; this only bounds stuck connections
	return &http.Client{Transport: transport, Timeout: 2 * timeout}, nil
}
