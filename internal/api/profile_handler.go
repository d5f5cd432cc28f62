package api

import (
	"bytes"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"contentwizard/internal/api/middleware"
	"contentwizard/internal/database"
)

// ProfileHandler serves the onboarding profile and provider settings.
type ProfileHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewProfileHandler constructs the profile handler.
func NewProfileHandler(db *gorm.DB, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{db: db, logger: logger}
}

type profileResponse struct {
	ID                  uint           `json:"id"`
	BusinessDetails     datatypes.JSON `json:"businessDetails"`
	VoiceProfile        datatypes.JSON `json:"voiceProfile"`
	ContentPrefs        datatypes.JSON `json:"contentPrefs"`
	HasOpenAIKey        bool           `json:"hasOpenAIKey"`
	OnboardingCompleted bool           `json:"onboardingCompleted"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

func newProfileResponse(p database.Profile) profileResponse {
	return profileResponse{
		ID:                  p.ID,
		BusinessDetails:     p.BusinessDetails,
		VoiceProfile:        p.VoiceProfile,
		ContentPrefs:        p.ContentPrefs,
		HasOpenAIKey:        p.Credential.Data().OpenAIKey != "",
		OnboardingCompleted: p.OnboardingCompleted,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

// GetProfile returns the caller's profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		Unauthorized(c, "No token provided")
		return
	}

	ctx := c.Request.Context()
	var profile database.Profile
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "Profile not found")
			return
		}
		h.loggerFromContext(c).Error("profile query failed", slog.Any("error", err))
		Internal(c, "Failed to fetch profile")
		return
	}

	OK(c, newProfileResponse(profile))
}

type updateProfileRequest struct {
	BusinessDetails datatypes.JSON `json:"businessDetails"`
	ContentPrefs    datatypes.JSON `json:"contentPrefs"`
	VoiceProfile    datatypes.JSON `json:"voiceProfile"`
}

// UpdateProfile replaces the provided profile sections. Sections omitted from
// the request body are left untouched. The onboarding flag is recomputed and
// persisted here so the server stays the single source of that truth.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		Unauthorized(c, "No token provided")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	var profile database.Profile
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "Profile not found")
			return
		}
		logger.Error("profile query failed", slog.Any("error", err))
		Internal(c, "Failed to update profile")
		return
	}

	if req.BusinessDetails != nil {
		profile.BusinessDetails = req.BusinessDetails
	}
	if req.ContentPrefs != nil {
		profile.ContentPrefs = req.ContentPrefs
	}
	if req.VoiceProfile != nil {
		profile.VoiceProfile = req.VoiceProfile
	}
	profile.OnboardingCompleted = jsonDocPresent(profile.BusinessDetails) &&
		jsonDocPresent(profile.VoiceProfile) &&
		jsonDocPresent(profile.ContentPrefs)

	if err := h.db.WithContext(ctx).Save(&profile).Error; err != nil {
		logger.Error("profile update failed", slog.Any("error", err))
		Internal(c, "Failed to update profile")
		return
	}

	OK(c, newProfileResponse(profile))
}

type settingsRequest struct {
	OpenAIKey string `json:"openAIKey" binding:"required,startswith=sk-"`
}

// UpdateSettings stores the provider API key on the caller's profile.
func (h *ProfileHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid API key format")
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		Unauthorized(c, "No token provided")
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	var profile database.Profile
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "Profile not found")
			return
		}
		logger.Error("profile query failed", slog.Any("error", err))
		Internal(c, "Failed to update settings")
		return
	}

	credential := profile.Credential.Data()
	credential.OpenAIKey = req.OpenAIKey
	profile.Credential = datatypes.NewJSONType(credential)

	if err := h.db.WithContext(ctx).Save(&profile).Error; err != nil {
		logger.Error("settings update failed", slog.Any("error", err))
		Internal(c, "Failed to update settings")
		return
	}

	OK(c, gin.H{"message": "Settings updated successfully"})
}

// jsonDocPresent reports whether a stored JSON document carries any fields.
func jsonDocPresent(doc datatypes.JSON) bool {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 {
		return false
	}
	switch string(trimmed) {
	case "{}", "null", "[]":
		return false
	}
	return true
}

func (h *ProfileHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
