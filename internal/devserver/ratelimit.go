package devserver

import (
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	rateWindow   = time.Minute
	staleClients = 10 * time.Minute
)

// limiter counts requests per client in fixed one-minute windows.
type limiter struct {
	mu        sync.Mutex
	clients   map[string]*window
	perMinute int
	lastSweep time.Time
	now       func() time.Time
}

type window struct {
	start    time.Time
	requests int
}

func newLimiter(perMinute int) *limiter {
	return &limiter{
		clients:   make(map[string]*window),
		perMinute: perMinute,
		now:       time.Now,
	}
}

func (l *limiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > staleClients {
		for k, w := range l.clients {
			if now.Sub(w.start) > staleClients {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	w, ok := l.clients[client]
	if !ok || now.Sub(w.start) > rateWindow {
		l.clients[client] = &window{start: now, requests: 1}
		return true
	}
	w.requests++
	return w.requests <= l.perMinute
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
