package api

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"

	"PosDashSaas/internal/logger"
)

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}

// createReverseProxy returns a reverse proxy handler for the given target URL
func createReverseProxy(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logr := logger.GlobalLogger

		msg := fmt.Sprintf("[Gateway] Incoming request: %s %s from %s", r.Method, r.URL.Path, extractClientIP(r))
		if logr != nil {
			logr.LogAudit(msg)
		} else {
			log.Println(msg)
		}

		url, err := url.Parse(target)
		if err != nil {
			msg := fmt.Sprintf("[Gateway][ERROR] Proxy error: bad target URL %s for %s", target, r.URL.Path)
			if logr != nil {
				logr.LogAudit(msg)
			} else {
				log.Println(msg)
			}
			http.Error(w, "Bad target URL", http.StatusInternalServerError)
			return
		}
		proxy := httputil.NewSingleHostReverseProxy(url)

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}
		proxy.ServeHTTP(rw, r)
		if rw.statusCode >= 400 {
			msg = fmt.Sprintf("[Gateway][ERROR] Proxied to %s for %s, status %d, error: %s", target, r.URL.Path, rw.statusCode, rw.body.String())
		} else {
			msg = fmt.Sprintf("[Gateway] Proxied to %s for %s, status %d", target, r.URL.Path, rw.statusCode)
		}
		if logr != nil {
			logr.LogAudit(msg)
		} else {
			log.Println(msg)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// StartGateway starts the API gateway server
func StartGateway() {
	mux := http.NewServeMux()

	mux.HandleFunc("/sales/", createReverseProxy("http://localhost:7143"))
	mux.HandleFunc("/dash/", createReverseProxy("http://localhost:4143"))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("API Gateway is healthy"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		logr := logger.GlobalLogger
		msg := "[Gateway] [Error] " + r.URL.Path + " from " + r.RemoteAddr + " (route not found)"
		if logr != nil {
			logr.LogAudit(msg)
		} else {
			log.Println(msg)
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("404 - Route not found"))
	})

	log.Println("API Gateway started on :8081")
	err := http.ListenAndServe(":8081", mux)
	if err != nil {
		log.Fatalf("Gateway server failed: %v", err)
	}
}
