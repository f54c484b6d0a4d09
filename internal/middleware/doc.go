// Package middleware provides the net/http middleware wrapped around the
// gin engine of every skywatch service.
//
// The chain order, outermost first, is Recovery, RequestID, Logging:
//
//	handler := middleware.Chain(engine,
//	    middleware.Recovery(logger),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)
package middleware
