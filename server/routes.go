package server

import "github.com/genukahq/go-oauth-bridge/internal/metrics"

func (s *Server) initRoutes() {
	// OAuth landing
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.APIMiddleware()...))

	// Session management
	s.RegisterRouteHandler("GET "+RouteAuthCheck, ChainMiddleware(s.CheckHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), append(s.APIMiddleware(), s.RequireCompanySession())...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// Webhooks
	s.RegisterRouteHandler("POST "+RouteAuthWebhook, ChainMiddleware(s.WebhookHandler(), s.APIMiddleware()...))

	// Prometheus scrape endpoint
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler(s.gatherer))
}
