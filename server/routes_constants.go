package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth landing from Genuka
	RouteAuthCallback = "/auth/callback"

	// Session management
	RouteAuthCheck   = "/auth/check"
	RouteAuthMe      = "/auth/me"
	RouteAuthRefresh = "/auth/refresh"
	RouteAuthLogout  = "/auth/logout"

	// Webhook deliveries
	RouteAuthWebhook = "/auth/webhook"

	// Operations
	RouteMetrics = "/metrics"
)

// WebhookSignatureHeader carries the provider's HMAC over the raw body.
const WebhookSignatureHeader = "X-Genuka-Signature"
