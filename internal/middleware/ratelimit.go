package middleware

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"taskManager/internal/logger"
	"time"

	"go.uber.org/zap"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// rateLimiter - счётчик с фиксированным окном на каждого клиента.
// Истёкшие окна вычищаются не чаще раза за окно, так что карта
// не растёт от клиентов, которые больше не приходят.
type rateLimiter struct {
	limit     int
	window    time.Duration
	now       func() time.Time
	mtx       sync.Mutex
	clients   map[string]*rateWindow
	nextSweep time.Time
}

func newRateLimiter(limit int, window time.Duration, now func() time.Time) *rateLimiter {
	return &rateLimiter{
		limit:     limit,
		window:    window,
		now:       now,
		clients:   make(map[string]*rateWindow),
		nextSweep: now().Add(window),
	}
}

// allow учитывает запрос клиента и возвращает состояние его окна
func (l *rateLimiter) allow(client string) (remaining int, resetAt time.Time, ok bool) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		l.sweep(now)
		l.nextSweep = now.Add(l.window)
	}

	w, exists := l.clients[client]
	if !exists || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(l.window)}
		l.clients[client] = w
	}
	if w.count >= l.limit {
		return 0, w.resetAt, false
	}
	w.count++
	return l.limit - w.count, w.resetAt, true
}

// sweep вызывается под mtx
func (l *rateLimiter) sweep(now time.Time) {
	for client, w := range l.clients {
		if !now.Before(w.resetAt) {
			delete(l.clients, client)
		}
	}
}

func (l *rateLimiter) tracked() int {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return len(l.clients)
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RLRequests.WithLabelValues(r.Method).Inc()

		client := clientIP(r)
		remaining, resetAt, ok := l.allow(client)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if ok {
			next.ServeHTTP(w, r)
			return
		}

		RLBlocked.WithLabelValues(r.Method).Inc()
		retryAfter := int(math.Ceil(resetAt.Sub(l.now()).Seconds()))
		requestID := GetRequestID(r.Context())
		logger.Warn("HTTP: Превышен лимит запросов",
			zap.String("request_id", requestID),
			zap.String("client_ip", client),
			zap.Int("retry_after", retryAfter))

		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		if err := json.NewEncoder(w).Encode(map[string]any{
			"error":       "RATE_LIMIT_EXCEEDED",
			"message":     "Слишком много запросов, попробуйте позже",
			"retry_after": retryAfter,
			"request_id":  requestID,
		}); err != nil {
			logger.Error("HTTP: Не удалось записать ответ", err)
		}
	})
}

// RateLimit ограничивает число запросов с одного IP в минуту, rpm <= 0 отключает лимит
func RateLimit(rpm int) func(http.Handler) http.Handler {
	if rpm <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return newRateLimiter(rpm, time.Minute, time.Now).middleware
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
