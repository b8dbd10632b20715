package appwrite

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/PabloGalante/farum-board/internal/observability"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// withLogging logs every request with its status and latency.
func withLogging(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		log := observability.LoggerFromContext(r.Context())

		resp, err := next.RoundTrip(r)
		if err != nil {
			log.Warn("appwrite request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"elapsed_ms", time.Since(start).Milliseconds(),
				"error", err)
			return nil, err
		}

		log.Debug("appwrite request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", resp.StatusCode,
			"elapsed_ms", time.Since(start).Milliseconds())
		return resp, nil
	})
}

// withProject adds the headers every Appwrite call carries.
func withProject(projectID string) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Set("X-Appwrite-Project", projectID)
			if r.Header.Get("Content-Type") == "" {
				r.Header.Set("Content-Type", "application/json")
			}
			return next.RoundTrip(r)
		})
	}
}

// fallbackCookies keeps the session in a header when the server cannot set
// cookies for this host (e.g. a custom domain without matching cookies).
type fallbackCookies struct {
	mu    sync.RWMutex
	value string
}

func (f *fallbackCookies) get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

func (f *fallbackCookies) set(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
}

func withFallbackCookies(store *fallbackCookies) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if v := store.get(); v != "" {
				r = r.Clone(r.Context())
				r.Header.Set("X-Fallback-Cookies", v)
			}

			resp, err := next.RoundTrip(r)
			if err != nil {
				return nil, err
			}
			if v := resp.Header.Get("X-Fallback-Cookies"); v != "" {
				store.set(v)
			}
			return resp, nil
		})
	}
}

// chainTransports applies multiple middlewares in order; the last one is
// outermost.
func chainTransports(rt http.RoundTripper, middlewares ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	for _, m := range middlewares {
		rt = m(rt)
	}
	return rt
}

// sessionJar is a cookie jar that can be emptied when the session ends.
type sessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	j := &sessionJar{}
	if err := j.reset(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *sessionJar) reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("creating cookie jar: %w", err)
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
	return nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}
