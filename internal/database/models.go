package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Content statuses.
const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
)

// User represents an account in the system.
type User struct {
	gorm.Model
	Email        string    `gorm:"uniqueIndex;size:255"`
	PasswordHash string    `gorm:"size:255"`
	Profile      Profile   `gorm:"constraint:OnDelete:CASCADE"`
	Contents     []Content `gorm:"constraint:OnDelete:CASCADE"`
}

// ProviderCredential holds the per-user LLM provider key. Stored as its own
// typed column instead of being mixed into the free-form profile documents.
type ProviderCredential struct {
	OpenAIKey string `json:"openAIKey,omitempty"`
}

// Profile carries the onboarding output for one user: free-form business,
// voice and preference documents plus the provider credential.
type Profile struct {
	gorm.Model
	UserID              uint                                   `gorm:"uniqueIndex"`
	BusinessDetails     datatypes.JSON                         `gorm:"type:jsonb"`
	VoiceProfile        datatypes.JSON                         `gorm:"type:jsonb"`
	ContentPrefs        datatypes.JSON                         `gorm:"type:jsonb"`
	Credential          datatypes.JSONType[ProviderCredential] `gorm:"type:jsonb"`
	OnboardingCompleted bool                                   `gorm:"default:false"`
}

// GenerationMeta is the snapshot recorded alongside generated content.
type GenerationMeta struct {
	Model       string             `json:"model"`
	Settings    GenerationSnapshot `json:"settings"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// GenerationSnapshot captures the request settings that produced a body.
type GenerationSnapshot struct {
	Type           string   `json:"type"`
	Tone           string   `json:"tone"`
	Length         *int     `json:"length,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	TargetAudience string   `json:"targetAudience"`
	Industry       string   `json:"industry"`
}

// ScheduleMeta records a publishing intent. Nothing consumes it; no component
// ever transitions scheduled content to published.
type ScheduleMeta struct {
	Platforms []string      `json:"platforms"`
	Rule      *ScheduleRule `json:"rule,omitempty"`
}

// ScheduleRule is present only when the repeat setting is not "none".
type ScheduleRule struct {
	Repeat    string   `json:"repeat"`
	Platforms []string `json:"platforms"`
}

// ContentMeta is a tagged union: exactly one variant is set depending on how
// the row was created.
type ContentMeta struct {
	Generation *GenerationMeta `json:"generation,omitempty"`
	Schedule   *ScheduleMeta   `json:"schedule,omitempty"`
}

// Content represents one generated or scheduled artifact. Owner and type are
// fixed at creation time.
type Content struct {
	gorm.Model
	UserID       uint                            `gorm:"index"`
	Type         string                          `gorm:"size:32"`
	Title        string                          `gorm:"size:255"`
	Body         string                          `gorm:"type:text"`
	Status       string                          `gorm:"size:16"`
	ScheduledFor *time.Time                      `gorm:"index"`
	Meta         datatypes.JSONType[ContentMeta] `gorm:"type:jsonb"`
	Versions     []ContentVersion                `gorm:"constraint:OnDelete:CASCADE"`
}

// VersionMeta marks where a version snapshot came from.
type VersionMeta struct {
	Source    string    `json:"source"` // "generation" or "manual-edit"
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ContentVersion is an append-only body snapshot. Version numbers per content
// form a gapless sequence starting at 1; the composite unique index is what
// keeps concurrent edits from assigning the same number twice.
type ContentVersion struct {
	gorm.Model
	ContentID uint                            `gorm:"uniqueIndex:idx_content_versions_content_version"`
	Version   int                             `gorm:"uniqueIndex:idx_content_versions_content_version"`
	Body      string                          `gorm:"type:text"`
	Meta      datatypes.JSONType[VersionMeta] `gorm:"type:jsonb"`
}
