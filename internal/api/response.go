package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"image_editor/internal/errs"       // Error taxonomy
	"image_editor/internal/middleware" // Request id lookup

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const internalErrorMessage = "internal server error" // Never leak store errors

// ok writes a success body merged with the given fields
func ok(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true} // Every success carries the flag
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// fail writes the failure body with a short message
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondError maps a service error to its status code and message
func respondError(c *gin.Context, err error) {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ve.Reason) // Client fixable
	case errors.Is(err, errs.ErrNotFound):
		fail(c, http.StatusNotFound, "project not found") // Missing or not owned
	case errors.Is(err, errs.ErrDuplicateUsername), errors.Is(err, errs.ErrDuplicateEmail):
		fail(c, http.StatusConflict, err.Error()) // Registration conflict
	case errors.Is(err, errs.ErrAuthFailure):
		fail(c, http.StatusUnauthorized, errs.ErrAuthFailure.Error()) // Same message for every cause
	case errors.Is(err, errs.ErrNoFileProvided):
		fail(c, http.StatusBadRequest, errs.ErrNoFileProvided.Error()) // Empty upload
	case errors.Is(err, errs.ErrUpload):
		fail(c, http.StatusBadRequest, errs.ErrUpload.Error()) // Unreadable image
	default:
		// Anything else is ours
		logrus.WithFields(logrus.Fields{
			"request_id": middleware.RequestID(c), // Correlate with the request log
			"path":       c.FullPath(),            // Route
			"error":      err.Error(),             // Cause
		}).Error("Request failed")
		fail(c, http.StatusInternalServerError, internalErrorMessage)
	}
}

// currentUser reads the authenticated user id, answering 401 when it is missing
func currentUser(c *gin.Context) (uint, bool) {
	userID, exists := middleware.CurrentUserID(c) // Set by the session middleware
	if !exists {
		fail(c, http.StatusUnauthorized, "authentication required")
		return 0, false
	}
	return userID, true
}
