package generation

import (
	"errors"
	"strings"
	"testing"
)

func sampleSettings(contentType string) Settings {
	return Settings{
		Type:           contentType,
		Tone:           "Professional",
		TargetAudience: "developers",
		Industry:       "Tech",
	}
}

func sampleBusiness() BusinessContext {
	return BusinessContext{
		BusinessName:   "Acme Corp",
		Industry:       "Tech",
		Description:    "We build developer tools.",
		TargetAudience: "developers",
	}
}

func sampleVoice() VoiceProfile {
	return VoiceProfile{
		WritingStyle: WritingStyle{
			Formality:  "formal",
			Complexity: "moderate",
			Emotion:    "neutral",
		},
	}
}

func TestAssemblePrompt_UnsupportedType(t *testing.T) {
	for _, contentType := range []string{"", "email", "BLOG", "instagram"} {
		_, err := AssemblePrompt("AI trends", sampleSettings(contentType), sampleBusiness(), sampleVoice())
		if !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("type %q: expected ErrUnsupportedType, got %v", contentType, err)
		}
	}
}

func TestAssemblePrompt_NoPlaceholdersRemain(t *testing.T) {
	for _, contentType := range []string{TypeBlog, TypeLinkedIn, TypeTwitter} {
		prompt, err := AssemblePrompt("AI trends", sampleSettings(contentType), sampleBusiness(), sampleVoice())
		if err != nil {
			t.Fatalf("assemble %s: %v", contentType, err)
		}
		if strings.Contains(prompt, "{{") || strings.Contains(prompt, "}}") {
			t.Fatalf("%s prompt still contains template tokens:\n%s", contentType, prompt)
		}
		if !strings.Contains(prompt, "AI trends") {
			t.Fatalf("%s prompt does not mention the topic", contentType)
		}
		if !strings.Contains(prompt, "Acme Corp") {
			t.Fatalf("%s prompt does not mention the business name", contentType)
		}
	}
}

func TestAssemblePrompt_OptionalDefaults(t *testing.T) {
	prompt, err := AssemblePrompt("AI trends", sampleSettings(TypeBlog), sampleBusiness(), sampleVoice())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(prompt, "Length: 500-800 words") {
		t.Fatalf("missing length default:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Keywords to include: none specified") {
		t.Fatalf("missing keyword sentinel:\n%s", prompt)
	}
}

func TestAssemblePrompt_ExplicitSettings(t *testing.T) {
	length := 1200
	settings := sampleSettings(TypeBlog)
	settings.Length = &length
	settings.Keywords = []string{"golang", "tooling"}

	prompt, err := AssemblePrompt("AI trends", settings, sampleBusiness(), sampleVoice())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if !strings.Contains(prompt, "Length: 1200 words") {
		t.Fatalf("explicit length not rendered:\n%s", prompt)
	}
	if !strings.Contains(prompt, "golang, tooling") {
		t.Fatalf("keywords not rendered:\n%s", prompt)
	}
}

func TestAssemblePrompt_TypeSpecificTemplates(t *testing.T) {
	twitter, err := AssemblePrompt("launch", sampleSettings(TypeTwitter), sampleBusiness(), sampleVoice())
	if err != nil {
		t.Fatalf("assemble twitter: %v", err)
	}
	if !strings.Contains(twitter, "Maximum 280 characters") {
		t.Fatalf("twitter template missing character cap:\n%s", twitter)
	}

	linkedin, err := AssemblePrompt("launch", sampleSettings(TypeLinkedIn), sampleBusiness(), sampleVoice())
	if err != nil {
		t.Fatalf("assemble linkedin: %v", err)
	}
	if !strings.Contains(linkedin, "LinkedIn post") {
		t.Fatalf("linkedin template missing platform marker:\n%s", linkedin)
	}
	if linkedin == twitter {
		t.Fatal("templates for different types must differ")
	}
}

func TestAssemblePrompt_Deterministic(t *testing.T) {
	first, err := AssemblePrompt("AI trends", sampleSettings(TypeBlog), sampleBusiness(), sampleVoice())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	second, err := AssemblePrompt("AI trends", sampleSettings(TypeBlog), sampleBusiness(), sampleVoice())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if first != second {
		t.Fatal("same inputs must produce the same prompt")
	}
}
