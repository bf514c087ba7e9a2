package middleware

import (
	"net/http"

	"medledger/pkg/response"

	"github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
)

// panicLogger sends gorilla's recovery output to logrus at error level.
type panicLogger struct {
	entry *logrus.Entry
}

func (l panicLogger) Println(v ...interface{}) {
	l.entry.Errorln(v...)
}

// Recovery turns a handler panic into the standard 500 envelope.
// handlers.RecoveryHandler does the recovering and stack logging; it only
// writes a bare status, so the envelope is added when nothing reached the
// client before the panic.
func Recovery(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := &envelopeOnPanic{ResponseWriter: w}
			logger := panicLogger{entry: log.WithFields(logrus.Fields{
				"request_id": GetRequestID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
			})}

			recovery := handlers.RecoveryHandler(
				handlers.RecoveryLogger(logger),
				handlers.PrintRecoveryStack(true),
			)
			recovery(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(&trackingWriter{ResponseWriter: w, started: &out.started}, req)
			})).ServeHTTP(out, r)
		})
	}
}

// envelopeOnPanic is the writer RecoveryHandler sees. The wrapped handler
// never writes to it, so any WriteHeader here comes from a recovered panic.
type envelopeOnPanic struct {
	http.ResponseWriter
	started bool
}

func (e *envelopeOnPanic) WriteHeader(int) {
	if e.started {
		return
	}
	e.started = true
	response.InternalServerError(e.ResponseWriter, "")
}

// trackingWriter is handed to the wrapped handler and records whether the
// response has begun.
type trackingWriter struct {
	http.ResponseWriter
	started *bool
}

func (t *trackingWriter) WriteHeader(code int) {
	*t.started = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	*t.started = true
	return t.ResponseWriter.Write(b)
}

func (t *trackingWriter) Flush() {
	*t.started = true
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (t *trackingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}
