// Package http implements the HTTP request handlers for the dashboard
// API. Handlers stay thin: they parse the request, call the dashboard
// service, and render either a JSON envelope or an RFC 7807 problem.
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Dataset
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// Filter parameters (status, priority, category, owner, manager,
// vendor) are repeatable query parameters. They combine with AND across
// fields and OR within one field.
package http
