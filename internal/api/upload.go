package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"image_editor/internal/errs"    // Error taxonomy
	"image_editor/internal/service" // Image operations

	"github.com/gin-gonic/gin" // Gin web framework
)

// UploadImageHandler stores an uploaded image and reports its dimensions.
// An optional project_id form field records the upload against that project.
func UploadImageHandler(images *service.ImageService, maxContentLength int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := currentUser(c)
		if !exists {
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxContentLength) // Cap the whole body
		fileHeader, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				fail(c, http.StatusRequestEntityTooLarge, "file too large")
				return
			}
			respondError(c, errs.ErrNoFileProvided) // Missing field or not multipart
			return
		}

		var projectID uint // Zero when the upload is not attached to a project
		if raw := c.PostForm("project_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				fail(c, http.StatusBadRequest, "invalid project_id")
				return
			}
			projectID = uint(id)
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, errs.ErrUpload)
			return
		}
		defer file.Close()

		result, err := images.Upload(c.Request.Context(), userID, fileHeader.Filename, file, projectID)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{
			"file_path": result.FilePath,
			"width":     result.Width,
			"height":    result.Height,
			"format":    result.Format,
			"size":      result.Size,
		})
	}
}
