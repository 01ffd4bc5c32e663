package middleware

import (
	"time" // Request latency

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Request ids
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "requestID" // Request id in gin context

// RequestLogger assigns every request an id and logs one entry when it completes
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader) // Reuse an upstream id
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)       // Expose to handlers
		c.Header(RequestIDHeader, id) // Echo back to the client
		start := time.Now()           // Start timer
		c.Next()                      // Serve the request

		path := c.FullPath() // Route pattern keeps ids out of the log key
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := logrus.Fields{
			"request_id": id,                               // Request id
			"method":     c.Request.Method,                 // HTTP method
			"path":       path,                             // Route
			"status":     c.Writer.Status(),                // Response status
			"latency_ms": time.Since(start).Milliseconds(), // Duration
			"client_ip":  c.ClientIP(),                     // Caller
		}
		if userID, ok := CurrentUserID(c); ok {
			fields["user_id"] = userID // Authenticated caller
		}
		entry := logrus.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}

// RequestID returns the id assigned by RequestLogger
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
