// Package server provides the Gin-backed HTTP server with the standard
// middleware stack (recovery, request IDs, CORS, body-size limiting,
// request logging) and graceful shutdown.
package server
