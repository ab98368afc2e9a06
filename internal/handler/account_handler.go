package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
	"inkcopilot/internal/middleware"
	"inkcopilot/pkg/cloudinary"
)

const maxAvatarBytes = 5 << 20

type AccountHandler struct {
	api    *apiclient.Client
	store  *auth.CookieStore
	cloud  cloudinary.Client // nil when uploads are not configured
	folder string
	logger zerolog.Logger
}

func NewAccountHandler(api *apiclient.Client, store *auth.CookieStore, cloud cloudinary.Client, folder string, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{api: api, store: store, cloud: cloud, folder: folder, logger: logger}
}

func (h *AccountHandler) Profile(c *gin.Context) {
	p, err := remote(c, h.api).Profile(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req apiclient.UpdateProfileData
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := remote(c, h.api).UpdateProfile(c.Request.Context(), req)
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AccountHandler) UpdateBilling(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address required"})
		return
	}
	p, err := remote(c, h.api).UpdateBilling(c.Request.Context(), apiclient.UpdateBillingData{Address: strings.TrimSpace(req.Address)})
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to update billing address")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UploadAvatar stores the image in Cloudinary under the caller's id and saves
// the resulting URL on the profile.
func (h *AccountHandler) UploadAvatar(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": cloudinary.ErrNotConfigured.Error()})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image must be 5MB or smaller"})
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only images are allowed"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	owner := middleware.GetSession(c).Owner()
	url, err := h.cloud.UploadAvatar(c.Request.Context(), f, h.folder, avatarID(owner))
	if err != nil {
		h.logger.Error().Err(err).Str("owner", owner).Msg("[account] avatar upload failed")
		status := http.StatusInternalServerError
		if errors.Is(err, cloudinary.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "upload failed"})
		return
	}

	p, err := remote(c, h.api).UpdateProfile(c.Request.Context(), apiclient.UpdateProfileData{Avatar: url})
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to save avatar")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "profile": p})
}

// avatarID keeps Cloudinary public ids to a safe character set.
func avatarID(owner string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(owner) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return "avatar_" + b.String()
}
