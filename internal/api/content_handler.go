package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"contentwizard/internal/api/middleware"
	"contentwizard/internal/database"
	"contentwizard/internal/generation"
)

// contentGenerator is the slice of generation.Service the handler needs.
type contentGenerator interface {
	Generate(ctx context.Context, userID uint, topic string, settings generation.Settings) (*database.Content, error)
}

// ContentHandler serves content CRUD, generation and scheduling.
type ContentHandler struct {
	db        *gorm.DB
	generator contentGenerator
	logger    *slog.Logger
}

// NewContentHandler constructs the content handler.
func NewContentHandler(db *gorm.DB, generator contentGenerator, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{db: db, generator: generator, logger: logger}
}

var errInvalidContentID = errors.New("invalid content id")

type versionResponse struct {
	ID        uint                 `json:"id"`
	Version   int                  `json:"version"`
	Content   string               `json:"content"`
	Metadata  database.VersionMeta `json:"metadata"`
	CreatedAt time.Time            `json:"createdAt"`
}

type contentResponse struct {
	ID           uint                 `json:"id"`
	Type         string               `json:"type"`
	Title        string               `json:"title"`
	Content      string               `json:"content"`
	Status       string               `json:"status"`
	ScheduledFor *time.Time           `json:"scheduledFor,omitempty"`
	Metadata     database.ContentMeta `json:"metadata"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
	Versions     []versionResponse    `json:"versions"`
}

func newContentResponse(content database.Content) contentResponse {
	versions := make([]versionResponse, 0, len(content.Versions))
	for _, v := range content.Versions {
		versions = append(versions, versionResponse{
			ID:        v.ID,
			Version:   v.Version,
			Content:   v.Body,
			Metadata:  v.Meta.Data(),
			CreatedAt: v.CreatedAt,
		})
	}
	return contentResponse{
		ID:           content.ID,
		Type:         content.Type,
		Title:        content.Title,
		Content:      content.Body,
		Status:       content.Status,
		ScheduledFor: content.ScheduledFor,
		Metadata:     content.Meta.Data(),
		CreatedAt:    content.CreatedAt,
		UpdatedAt:    content.UpdatedAt,
		Versions:     versions,
	}
}

func preloadVersions(db *gorm.DB) *gorm.DB {
	return db.Order("version DESC")
}

// ListContent returns the caller's content, scheduled items first by their
// publish time, then newest first, with version history attached.
func (h *ContentHandler) ListContent(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		Unauthorized(c, "No token provided")
		return
	}

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("scheduled_for ASC NULLS LAST").
		Order("created_at DESC").
		Preload("Versions", preloadVersions)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var contents []database.Content
	if err := query.Find(&contents).Error; err != nil {
		h.loggerFromContext(c).Error("list content failed", slog.Any("error", err))
		Internal(c, "Failed to fetch content")
		return
	}

	items := make([]contentResponse, 0, len(contents))
	for _, content := range contents {
		items = append(items, newContentResponse(content))
	}
	OK(c, items)
}

// GetContent returns one owned content item with versions. A content id that
// exists but belongs to someone else is indistinguishable from a missing one.
func (h *ContentHandler) GetContent(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		Unauthorized(c, "No token provided")
		return
	}

	content, err := h.getContentForUser(c.Request.Context(), c.Param("id"), userID, true)
	if err != nil {
		h.replyContentLookupError(c, err)
		return
	}

	OK(c, newContentResponse(*content))
}

type generateRequest struct {
	Topic    string              `json:"topic" binding:"required"`
	Settings generation.Settings `json:"settings" binding:"required"`
}

// GenerateContent validates the request, then hands off to the generation
// pipeline. Validation and profile errors return before any provider call.
func (h *ContentHandler) GenerateContent(c *gin.Context) {
	var req generateRequest
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
	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.String("type", req.Settings.Type),
	)

	content, err := h.generator.Generate(ctx, userID, req.Topic, req.Settings)
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrProfileNotFound):
			NotFound(c, "Profile not found")
		case errors.Is(err, generation.ErrCredentialMissing):
			BadRequest(c, "OpenAI API key not found in profile settings")
		case errors.Is(err, generation.ErrUnsupportedType):
			BadRequest(c, "Unsupported content type")
		case errors.Is(err, generation.ErrGenerationFailed):
			logger.Error("generation failed", slog.Any("error", err))
			Internal(c, "Failed to generate content")
		default:
			logger.Error("generate content failed", slog.Any("error", err))
			Internal(c, "Failed to generate content")
		}
		return
	}

	logger.Info("content generated", slog.Uint64("content_id", uint64(content.ID)))
	OK(c, newContentResponse(*content))
}

type updateContentRequest struct {
	Content string `json:"content" binding:"required"`
}

// UpdateContent overwrites the body and appends the next version number. Both
// writes run in one transaction; a duplicate version number from a concurrent
// edit triggers one retry with a freshly computed number.
func (h *ContentHandler) UpdateContent(c *gin.Context) {
	var req updateContentRequest
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
	content, err := h.getContentForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.replyContentLookupError(c, err)
		return
	}

	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("content_id", uint64(content.ID)),
	)

	if err := h.appendManualEdit(ctx, content.ID, req.Content); err != nil {
		logger.Error("manual edit failed", slog.Any("error", err))
		Internal(c, "Failed to update content")
		return
	}

	updated, err := h.getContentForUser(ctx, c.Param("id"), userID, true)
	if err != nil {
		h.replyContentLookupError(c, err)
		return
	}
	OK(c, newContentResponse(*updated))
}

// DeleteContent removes an owned content item together with its versions.
func (h *ContentHandler) DeleteContent(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		Unauthorized(c, "No token provided")
		return
	}

	ctx := c.Request.Context()
	content, err := h.getContentForUser(ctx, c.Param("id"), userID, false)
	if err != nil {
		h.replyContentLookupError(c, err)
		return
	}

	if err := h.db.WithContext(ctx).Select(clause.Associations).Delete(content).Error; err != nil {
		h.loggerFromContext(c).Error("delete content failed", slog.Any("error", err))
		Internal(c, "Failed to delete content")
		return
	}

	OK(c, gin.H{"message": "Content deleted successfully"})
}

type scheduleSettingsRequest struct {
	Date      string   `json:"date" binding:"required"`
	Time      string   `json:"time" binding:"required"`
	Repeat    string   `json:"repeat" binding:"required,oneof=none daily weekly monthly"`
	Platforms []string `json:"platforms" binding:"required,min=1,dive,required"`
}

type scheduleRequest struct {
	Content          string                  `json:"content" binding:"required"`
	Type             string                  `json:"type" binding:"required,oneof=blog linkedin twitter"`
	ScheduleSettings scheduleSettingsRequest `json:"scheduleSettings" binding:"required"`
}

// ScheduleContent records a publishing intent: a scheduled content row with
// the target platforms and repeat rule. Nothing executes it later.
func (h *ContentHandler) ScheduleContent(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BindError(c, err)
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		Unauthorized(c, "No token provided")
		return
	}

	scheduledFor, err := combineScheduleTime(req.ScheduleSettings.Date, req.ScheduleSettings.Time)
	if err != nil {
		BadRequest(c, "Invalid schedule date or time")
		return
	}
	if !scheduledFor.After(time.Now()) {
		BadRequest(c, "Schedule time must be in the future")
		return
	}

	meta := database.ScheduleMeta{Platforms: req.ScheduleSettings.Platforms}
	if req.ScheduleSettings.Repeat != "none" {
		meta.Rule = &database.ScheduleRule{
			Repeat:    req.ScheduleSettings.Repeat,
			Platforms: req.ScheduleSettings.Platforms,
		}
	}

	content := database.Content{
		UserID:       userID,
		Type:         req.Type,
		Body:         req.Content,
		Status:       database.StatusScheduled,
		ScheduledFor: &scheduledFor,
		Meta:         datatypes.NewJSONType(database.ContentMeta{Schedule: &meta}),
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Create(&content).Error; err != nil {
		h.loggerFromContext(c).Error("schedule content failed", slog.Any("error", err))
		Internal(c, "Failed to schedule content")
		return
	}

	Success(c, http.StatusOK, newContentResponse(content))
}

// appendManualEdit updates the body and inserts the next version inside one
// transaction. The (content_id, version) unique index turns a concurrent
// assignment of the same number into a duplicated-key error; one retry
// recomputes the max and wins or gives up.
func (h *ContentHandler) appendManualEdit(ctx context.Context, contentID uint, body string) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&database.Content{}).
				Where("id = ?", contentID).
				Update("body", body).Error; err != nil {
				return err
			}

			var maxVersion int
			if err := tx.Model(&database.ContentVersion{}).
				Where("content_id = ?", contentID).
				Select("COALESCE(MAX(version), 0)").
				Scan(&maxVersion).Error; err != nil {
				return err
			}

			version := database.ContentVersion{
				ContentID: contentID,
				Version:   maxVersion + 1,
				Body:      body,
				Meta: datatypes.NewJSONType(database.VersionMeta{
					Source:    "manual-edit",
					Timestamp: time.Now().UTC(),
				}),
			}
			return tx.Create(&version).Error
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

func (h *ContentHandler) getContentForUser(ctx context.Context, rawID string, userID uint, withVersions bool) (*database.Content, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id == 0 {
		return nil, errInvalidContentID
	}

	query := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID)
	if withVersions {
		query = query.Preload("Versions", preloadVersions)
	}

	var content database.Content
	if err := query.First(&content).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

func (h *ContentHandler) replyContentLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidContentID), errors.Is(err, gorm.ErrRecordNotFound):
		// Not-owned and nonexistent must be the same signal.
		NotFound(c, "Content not found")
	default:
		h.loggerFromContext(c).Error("content lookup failed", slog.Any("error", err))
		Internal(c, "Failed to fetch content")
	}
}

func combineScheduleTime(date, clock string) (time.Time, error) {
	// Clients may send the date as a full ISO timestamp; only the date part
	// is significant.
	if idx := strings.IndexByte(date, 'T'); idx > 0 {
		date = date[:idx]
	}
	return time.Parse("2006-01-02 15:04", date+" "+clock)
}

func (h *ContentHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
