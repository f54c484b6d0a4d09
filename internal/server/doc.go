// Package server provides the HTTP listener shared by the skywatch
// services: a gin engine behind the recovery, request ID and access log
// middlewares, with health and metrics endpoints mounted next to the
// service routes.
package server
