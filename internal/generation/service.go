package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"contentwizard/internal/database"
)

// Failure modes the handler maps onto HTTP statuses. Note that a missing
// credential is distinct from a missing profile.
var (
	ErrProfileNotFound   = errors.New("profile not found")
	ErrCredentialMissing = errors.New("provider api key not configured")
	ErrGenerationFailed  = errors.New("generation failed")
)

// LLMClient is the provider dependency. *openai.Client satisfies it.
type LLMClient interface {
	Complete(ctx context.Context, apiKey, prompt string) (string, error)
	Model() string
}

// Service orchestrates one generation: load profile, assemble prompt, call
// the provider, persist the content with its first version.
type Service struct {
	db      *gorm.DB
	llm     LLMClient
	timeout time.Duration
}

// NewService constructs the generation service.
func NewService(db *gorm.DB, llm LLMClient, timeout time.Duration) *Service {
	return &Service{db: db, llm: llm, timeout: timeout}
}

// Generate runs the full pipeline and returns the created content row. The
// provider call and the two inserts are the only side effects; any failure
// before the inserts leaves no rows behind. Provider failures are terminal,
// nothing is retried.
func (s *Service) Generate(ctx context.Context, userID uint, topic string, settings Settings) (*database.Content, error) {
	var profile database.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	apiKey := profile.Credential.Data().OpenAIKey
	if apiKey == "" {
		return nil, ErrCredentialMissing
	}

	business := parseBusinessContext(profile.BusinessDetails)
	voice := parseVoiceProfile(profile.VoiceProfile)

	prompt, err := AssemblePrompt(topic, settings, business, voice)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := s.llm.Complete(callCtx, apiKey, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, err)
	}

	now := time.Now().UTC()
	meta := database.ContentMeta{
		Generation: &database.GenerationMeta{
			Model:       s.llm.Model(),
			Settings:    snapshotSettings(settings),
			GeneratedAt: now,
		},
	}

	content := database.Content{
		UserID: userID,
		Type:   settings.Type,
		Title:  topic,
		Body:   body,
		Status: database.StatusDraft,
		Meta:   datatypes.NewJSONType(meta),
	}

	// Content and its first version are one unit: a crash between the two
	// inserts must not leave a content row without a version.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&content).Error; err != nil {
			return fmt.Errorf("create content: %w", err)
		}
		version := database.ContentVersion{
			ContentID: content.ID,
			Version:   1,
			Body:      body,
			Meta: datatypes.NewJSONType(database.VersionMeta{
				Source:    "generation",
				Model:     s.llm.Model(),
				Timestamp: now,
			}),
		}
		if err := tx.Create(&version).Error; err != nil {
			return fmt.Errorf("create initial version: %w", err)
		}
		content.Versions = []database.ContentVersion{version}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &content, nil
}

func snapshotSettings(settings Settings) database.GenerationSnapshot {
	return database.GenerationSnapshot{
		Type:           settings.Type,
		Tone:           settings.Tone,
		Length:         settings.Length,
		Keywords:       settings.Keywords,
		TargetAudience: settings.TargetAudience,
		Industry:       settings.Industry,
	}
}

// The profile documents are free-form; fields the onboarding flow never
// filled in simply render as empty strings in the prompt.
func parseBusinessContext(doc datatypes.JSON) BusinessContext {
	var business BusinessContext
	if len(doc) > 0 {
		_ = json.Unmarshal(doc, &business)
	}
	return business
}

func parseVoiceProfile(doc datatypes.JSON) VoiceProfile {
	var voice VoiceProfile
	if len(doc) > 0 {
		_ = json.Unmarshal(doc, &voice)
	}
	return voice
}
