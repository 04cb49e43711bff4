// Package httpserver constructs the catalog API's http.Server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns the server the catalog API listens on. Header and read
// timeouts guard against slow clients; writes get more room because product
// payloads carry a text block per language.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
