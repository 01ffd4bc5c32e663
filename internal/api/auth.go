package api

import (
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"image_editor/internal/auth"       // Credential store
	"image_editor/internal/middleware" // Session cookie name
	"image_editor/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RegisterRequest is the body of a registration
type RegisterRequest struct {
	Username string `json:"username"` // Account name
	Email    string `json:"email"`    // Contact address
	Password string `json:"password"` // Raw password, hashed by the store
}

// LoginRequest is the body of a login
type LoginRequest struct {
	Username string `json:"username"` // Account name
	Password string `json:"password"` // Raw password
}

// SessionConfig controls the tokens handed out at login
type SessionConfig struct {
	Secret       string        // Token signing secret
	TTL          time.Duration // Token and cookie lifetime
	SecureCookie bool          // Only send the cookie over HTTPS
}

// RegisterHandler creates a new account
func RegisterHandler(creds *auth.CredentialStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			fail(c, http.StatusBadRequest, "invalid request")
			return
		}
		userID, err := creds.Register(c.Request.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			respondError(c, err) // Validation, duplicate or store failure
			return
		}
		ok(c, http.StatusCreated, gin.H{"user_id": userID}) // Return the new id
	}
}

// LoginHandler authenticates a user, returns a token and sets the session cookie
func LoginHandler(creds *auth.CredentialStore, session SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			fail(c, http.StatusBadRequest, "invalid request")
			return
		}
		userID, err := creds.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err) // Same answer for unknown user and wrong password
			return
		}
		token, err := utils.GenerateJWT(userID, session.Secret, session.TTL) // Generate JWT token
		if err != nil {
			respondError(c, err)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode) // Editor calls are same-site
		c.SetCookie(middleware.SessionCookieName, token, int(session.TTL.Seconds()), "/", "", session.SecureCookie, true)
		logrus.WithField("user_id", userID).Info("User logged in")
		ok(c, http.StatusOK, gin.H{"token": token}) // Return the token in the response
	}
}

// LogoutHandler clears the session cookie
func LogoutHandler(session SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", session.SecureCookie, true) // Expire immediately
		ok(c, http.StatusOK, nil)
	}
}

// DeleteAccountHandler removes the current user together with every owned project
func DeleteAccountHandler(creds *auth.CredentialStore, session SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUser(c) // Get userID from context
		if !exists {
			return
		}
		if err := creds.DeleteUser(c.Request.Context(), userID); err != nil {
			respondError(c, err)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", session.SecureCookie, true) // Session is now meaningless
		ok(c, http.StatusOK, nil)
	}
}
