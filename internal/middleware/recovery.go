package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"garment-backend/internal/config"

	"github.com/sirupsen/logrus"
)

func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				config.GetLogger().WithFields(logrus.Fields{
					"panic":      fmt.Sprint(err),
					"path":       r.URL.Path,
					"request_id": RequestID(r.Context()),
					"stack":      string(debug.Stack()),
				}).Error("panic recovered")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, `{"error": "Internal server error"}`)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
