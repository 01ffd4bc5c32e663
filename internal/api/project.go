package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"image_editor/internal/service" // Project operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// projectIDParam parses the :id path segment, answering 404 when it is not a positive id
func projectIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64) // Parse id
	if err != nil || id == 0 {
		fail(c, http.StatusNotFound, "project not found")
		return 0, false
	}
	return uint(id), true
}

// SaveProjectHandler creates a project or overwrites one the user owns
func SaveProjectHandler(projects *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUser(c) // Get userID from context
		if !exists {
			return
		}
		var payload service.SavePayload // Bind JSON request to struct
		if err := c.ShouldBindJSON(&payload); err != nil {
			// If binding fails, return bad request
			fail(c, http.StatusBadRequest, "invalid request")
			return
		}
		projectID, err := projects.SaveProject(c.Request.Context(), userID, payload)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"project_id": projectID})
	}
}

// LoadProjectHandler returns a project with its decoded editor state
func LoadProjectHandler(projects *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUser(c)
		if !exists {
			return
		}
		projectID, valid := projectIDParam(c)
		if !valid {
			return
		}
		project, err := projects.LoadProject(c.Request.Context(), userID, projectID)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"project": project})
	}
}

// DeleteProjectHandler removes a project with its history and saved images
func DeleteProjectHandler(projects *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUser(c)
		if !exists {
			return
		}
		projectID, valid := projectIDParam(c)
		if !valid {
			return
		}
		if err := projects.DeleteProject(c.Request.Context(), userID, projectID); err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, nil)
	}
}

// CleanEmptyProjectsHandler sweeps the user's empty projects
func CleanEmptyProjectsHandler(projects *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUser(c)
		if !exists {
			return
		}
		deleted, err := projects.CleanEmptyProjects(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"deleted_count": deleted})
	}
}

// ListProjectsHandler lists the user's projects, most recently updated first
func ListProjectsHandler(projects *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUser(c)
		if !exists {
			return
		}
		list, err := projects.ListProjects(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"projects": list})
	}
}

// ProjectHistoryHandler returns a project's edit history, oldest first
func ProjectHistoryHandler(projects *service.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUser(c)
		if !exists {
			return
		}
		projectID, valid := projectIDParam(c)
		if !valid {
			return
		}
		history, err := projects.History(c.Request.Context(), userID, projectID)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"history": history})
	}
}
