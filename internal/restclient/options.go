package restclient

import (
	"net/http"
	"net/url"
	"time"
)

type callOptions struct {
	headers http.Header
	params  url.Values
	timeout time.Duration
}

// Option adjusts a single call. Headers and params merge key by key over
// the client defaults, so adding X-Language keeps Authorization intact.
type Option func(*callOptions)

func WithHeader(key, value string) Option {
	return func(o *callOptions) {
		if value == "" {
			return
		}
		o.headers.Set(key, value)
	}
}

func WithLanguage(language string) Option {
	return WithHeader("X-Language", language)
}

func WithCurrency(currency string) Option {
	return WithHeader("X-Currency", currency)
}

func WithParam(key, value string) Option {
	return func(o *callOptions) {
		if value == "" {
			return
		}
		o.params.Set(key, value)
	}
}

func WithParams(params url.Values) Option {
	return func(o *callOptions) {
		for k, values := range params {
			o.params.Del(k)
			for _, v := range values {
				if v != "" {
					o.params.Add(k, v)
				}
			}
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *callOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}
