package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recover turns a panic into a 500 JSON response. With showDetails the
// panic value is sent to the client.
func Recover(logger *slog.Logger, showDetails bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				logger.Error("Panic while serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", v,
					"stack", string(debug.Stack()),
				)

				if rec.wroteHeader {
					return
				}

				message := "Internal server error"
				if showDetails {
					message = fmt.Sprint(v)
				}
				rec.Header().Set("Content-Type", "application/json")
				rec.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(rec).Encode(map[string]string{
					"error":   "Something went wrong!",
					"message": message,
				})
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
