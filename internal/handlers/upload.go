package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ubuhinzi360/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	AllowedImageExts = ".jpg,.jpeg,.png,.gif,.webp"
	AllowedVideoExts = ".mp4,.webm,.mov"
	AllowedAudioExts = ".mp3,.wav,.ogg,.m4a,.webm"
)

// MaxFileSize is the upload limit per media kind
var MaxFileSize = map[models.MessageKind]int64{
	models.KindImage: 5 * 1024 * 1024,
	models.KindVideo: 25 * 1024 * 1024,
	models.KindAudio: 10 * 1024 * 1024,
}

// UploadFile stores an attachment and returns a message draft pointing at it
func (h *Handler) UploadFile(c *fiber.Ctx) error {
	// Get file from form
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "No file uploaded")
	}

	kind := models.MessageKind(c.Query("type", string(models.KindImage)))
	limit, known := MaxFileSize[kind]
	if !known {
		return fail(c, fiber.StatusBadRequest, "Invalid file type. Must be: image, video, or audio")
	}

	if file.Size > limit {
		return fail(c, fiber.StatusBadRequest,
			fmt.Sprintf("File size exceeds limit of %dMB (uploaded: %.2fMB)", limit/(1024*1024), float64(file.Size)/(1024*1024)))
	}

	// Validate file extension
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !isAllowedExtension(ext, kind) {
		return fail(c, fiber.StatusBadRequest, fmt.Sprintf("File extension %s not allowed for type %s", ext, kind))
	}

	// Create upload directory if not exists
	uploadPath := filepath.Join(h.UploadDir, string(kind)+"s")
	if err := os.MkdirAll(uploadPath, 0755); err != nil {
		h.logger().Error("failed to create upload directory", "path", uploadPath, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to create upload directory")
	}

	// Generate unique filename
	filename := fmt.Sprintf("%s-%d%s", uuid.New().String(), time.Now().Unix(), ext)
	if err := c.SaveFile(file, filepath.Join(uploadPath, filename)); err != nil {
		h.logger().Error("failed to save upload", "file", filename, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to save file")
	}

	return ok(c, fiber.StatusCreated, models.Message{
		Kind: kind,
		URL:  fmt.Sprintf("/uploads/%ss/%s", kind, filename),
		Meta: &models.MediaMeta{
			FileName: file.Filename,
			MimeType: getContentType(ext),
			Size:     file.Size,
		},
	})
}

// isAllowedExtension checks if file extension is allowed for the given type
func isAllowedExtension(ext string, kind models.MessageKind) bool {
	if ext == "" {
		return false
	}
	var allowed string
	switch kind {
	case models.KindImage:
		allowed = AllowedImageExts
	case models.KindVideo:
		allowed = AllowedVideoExts
	case models.KindAudio:
		allowed = AllowedAudioExts
	default:
		return false
	}
	for _, a := range strings.Split(allowed, ",") {
		if a == ext {
			return true
		}
	}
	return false
}

// uploadedFile reports whether url is a path UploadFile returned for kind
// and the file is still on disk
func (h *Handler) uploadedFile(kind models.MessageKind, url string) bool {
	prefix := fmt.Sprintf("/uploads/%ss/", kind)
	name, found := strings.CutPrefix(url, prefix)
	if !found || name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return false
	}
	if !isAllowedExtension(strings.ToLower(filepath.Ext(name)), kind) {
		return false
	}
	info, err := os.Stat(filepath.Join(h.UploadDir, string(kind)+"s", name))
	return err == nil && info.Mode().IsRegular()
}

// GetFile serves uploaded files
func (h *Handler) GetFile(c *fiber.Ctx) error {
	fileType := c.Params("type")
	filename := filepath.Base(c.Params("filename"))

	// Validate file type
	if fileType != "images" && fileType != "videos" && fileType != "audios" {
		return fail(c, fiber.StatusBadRequest, "Invalid file type")
	}

	filePath := filepath.Join(h.UploadDir, fileType, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fail(c, fiber.StatusNotFound, "File not found")
	}

	c.Set(fiber.HeaderContentType, getContentType(strings.ToLower(filepath.Ext(filename))))
	return c.SendFile(filePath)
}

// getContentType returns content type based on file extension
func getContentType(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
