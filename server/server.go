// Package server is the HTTP surface of the bridge: routing, middleware,
// and the handlers for the auth and webhook endpoints.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/genukahq/go-oauth-bridge/auth"
	"github.com/genukahq/go-oauth-bridge/internal/config"
	"github.com/genukahq/go-oauth-bridge/internal/metrics"
	"github.com/genukahq/go-oauth-bridge/sessions"
	"github.com/genukahq/go-oauth-bridge/webhooks"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "production")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	auth       *auth.Service
	sessions   *sessions.Issuer
	dispatcher *webhooks.Dispatcher
	metrics    *metrics.Collector
	gatherer   prometheus.Gatherer
}

func New(cfg config.Config, authService *auth.Service, issuer *sessions.Issuer) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("[Server New] session issuer is required")
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	s := &Server{
		env:        cfg.GetEnv(),
		mux:        http.NewServeMux(),
		config:     cfg,
		auth:       authService,
		sessions:   issuer,
		metrics:    collector,
		gatherer:   registry,
		dispatcher: webhooks.NewDispatcher(cfg.GetClientSecret(), webhooks.WithRecorder(collector)),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
