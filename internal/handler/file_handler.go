package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/colegio-altavista/portal-api/pkg/config"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
	"github.com/colegio-altavista/portal-api/pkg/response"
	"github.com/colegio-altavista/portal-api/pkg/storage"
)

// FileHandler stores multipart uploads and serves downloads through
// HMAC signed tokens so stored paths are never exposed directly.
type FileHandler struct {
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	config config.UploadsConfig
}

// NewFileHandler creates a new handler.
func NewFileHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg config.UploadsConfig) *FileHandler {
	return &FileHandler{store: store, signer: signer, config: cfg}
}

// Upload godoc
// @Summary Upload an attachment
// @Description Store a file for later reference (assignment resource, teacher photo)
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File"
// @Param purpose formData string false "Storage folder (resources, photos)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	purpose := c.PostForm("purpose")
	switch purpose {
	case "", "resources":
		purpose = "resources"
	case "photos":
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "purpose must be resources or photos"))
		return
	}

	path, err := h.storeUpload(c, purpose)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, expiresAt, err := h.signer.Generate(claims.UserID, path)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token"))
		return
	}

	response.Created(c, gin.H{
		"path":       path,
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Download godoc
// @Summary Download an attachment
// @Description Stream a stored file referenced by a signed token
// @Tags Files
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /files/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	_, path, _, err := h.signer.Parse(token)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token"))
		return
	}

	file, err := h.store.Open(path)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, file); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func (h *FileHandler) storeUpload(c *gin.Context, folder string) (string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is required")
	}
	return saveMultipartFile(h.store, h.config, header, folder)
}

func saveMultipartFile(store *storage.LocalStorage, cfg config.UploadsConfig, header *multipart.FileHeader, folder string) (string, error) {
	if cfg.MaxFileSizeBytes > 0 && header.Size > cfg.MaxFileSizeBytes {
		return "", appErrors.ErrFileTooLarge
	}

	if len(cfg.AllowedMIMEs) > 0 {
		contentType := header.Header.Get("Content-Type")
		allowed := false
		for _, mime := range cfg.AllowedMIMEs {
			if strings.EqualFold(mime, contentType) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", appErrors.ErrUnsupportedFile
		}
	}

	src, err := header.Open()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	defer src.Close() //nolint:errcheck

	name := fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(header.Filename))
	path := filepath.ToSlash(filepath.Join(folder, name))
	stored, err := store.SaveStream(path, src)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	return stored, nil
}
