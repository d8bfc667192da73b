package file

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aidosk/fileharbor/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts file operations under /files.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	filesGroup := group.Group("/files")
	{
		filesGroup.GET("", handler.listFiles)
		filesGroup.POST("/upload", handler.uploadFile)
		filesGroup.GET("/:id/download", handler.downloadFile)
		filesGroup.DELETE("/:id", handler.deleteFile)
	}
}

type httpHandler struct {
	service *Service
}

// fileResponse is the public projection of a File. The storage key and
// owner id never leave the server.
type fileResponse struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Filetype  string    `json:"filetype"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type listResponse struct {
	Files      []fileResponse `json:"files"`
	FilesCount int            `json:"filesCount"`
}

func (h *httpHandler) listFiles(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	files, err := h.service.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list files. Please try again later."})
		return
	}

	resp := listResponse{Files: make([]fileResponse, 0, len(files)), FilesCount: len(files)}
	for _, f := range files {
		resp.Files = append(resp.Files, projectFile(f))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided."})
		return
	}

	stored, err := h.service.Upload(c.Request.Context(), user.ID, fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "File cannot be empty."})
		case errors.Is(err, ErrTypeNotAllowed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed. You may only upload images and documents."})
		case errors.Is(err, ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 5MB limit."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file. Please try again later."})
		}
		return
	}

	c.JSON(http.StatusCreated, projectFile(stored))
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
		return
	}

	meta, payload, err := h.service.Download(c.Request.Context(), user.ID, fileID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to download file. Please try again later."})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Filename))
	c.Data(http.StatusOK, meta.Filetype, payload)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
		return
	}

	if err := h.service.Delete(c.Request.Context(), user.ID, fileID); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file. Please try again later."})
		return
	}

	c.Status(http.StatusNoContent)
}

func projectFile(f File) fileResponse {
	return fileResponse{
		ID:        f.ID.String(),
		Filename:  f.Filename,
		Filetype:  f.Filetype,
		Size:      f.SizeBytes,
		CreatedAt: f.CreatedAt.UTC(),
	}
}
