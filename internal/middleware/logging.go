package middleware

import (
	"net/http"
	"taskManager/internal/logger"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// responseRecorder запоминает код и размер ответа для логов и метрик
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w}
}

func (rec *responseRecorder) WriteHeader(code int) {
	if rec.status != 0 {
		return
	}
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.WriteHeader(http.StatusOK)
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Status - 200, если обработчик ничего не записал
func (rec *responseRecorder) Status() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logging пишет строку на входе и на выходе запроса с общим request_id
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := zap.String("request_id", GetRequestID(r.Context()))

		logger.HttpRequestInfo(r, "HTTP_IN: Начало запроса", requestID)

		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)

		logger.Log(levelForStatus(rec.Status()), "HTTP_OUT: Завершение запроса",
			requestID,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.Status()),
			zap.Int("bytes_written", rec.bytes),
			zap.Duration("ms", time.Since(start)),
		)
	})
}
