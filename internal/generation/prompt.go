package generation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// ErrUnsupportedType is returned for content types without a template. There
// is deliberately no fallback template.
var ErrUnsupportedType = errors.New("unsupported content type")

// Content types with a prompt template.
const (
	TypeBlog     = "blog"
	TypeLinkedIn = "linkedin"
	TypeTwitter  = "twitter"
)

// Settings is the generation request shape. Binding tags double as the
// recognized-shape validation for the generate endpoint.
type Settings struct {
	Type           string   `json:"type" binding:"required,oneof=blog linkedin twitter"`
	Tone           string   `json:"tone" binding:"required"`
	Length         *int     `json:"length" binding:"omitempty,gt=0"`
	Keywords       []string `json:"keywords" binding:"omitempty,dive,required"`
	TargetAudience string   `json:"targetAudience" binding:"required"`
	Industry       string   `json:"industry" binding:"required"`
}

// BusinessContext is parsed out of the profile's business details document.
type BusinessContext struct {
	BusinessName   string `json:"businessName"`
	Industry       string `json:"industry"`
	Description    string `json:"description"`
	TargetAudience string `json:"targetAudience"`
}

// WritingStyle is the voice triple collected during onboarding.
type WritingStyle struct {
	Formality  string `json:"formality"`
	Complexity string `json:"complexity"`
	Emotion    string `json:"emotion"`
}

// VoiceProfile is parsed out of the profile's voice document.
type VoiceProfile struct {
	WritingStyle WritingStyle `json:"writingStyle"`
}

// Defaults substituted for optional settings so the rendered prompt never
// contains an empty slot.
const (
	defaultLength   = "500-800"
	keywordSentinel = "none specified"
)

type promptInput struct {
	Topic               string
	BusinessName        string
	Industry            string
	TargetAudience      string
	BusinessDescription string
	Formality           string
	Complexity          string
	Emotion             string
	Length              string
	Keywords            string
	Tone                string
}

var promptTemplates = map[string]*template.Template{
	TypeBlog: template.Must(template.New(TypeBlog).Parse(
		`You are a professional content writer for {{.BusinessName}}, a {{.Industry}} company.
Write a blog post about {{.Topic}} that resonates with {{.TargetAudience}}.

Business Context:
{{.BusinessDescription}}

Writing Style:
- Formality: {{.Formality}}
- Complexity: {{.Complexity}}
- Emotional Tone: {{.Emotion}}

Additional Requirements:
- Length: {{.Length}} words
- Keywords to include: {{.Keywords}}
- Maintain a {{.Tone}} tone throughout the content

The blog post should be informative, engaging, and aligned with our brand voice.
Include a compelling headline, clear structure, and a strong call-to-action.`)),

	TypeLinkedIn: template.Must(template.New(TypeLinkedIn).Parse(
		`As a thought leader in {{.Industry}}, create a LinkedIn post for {{.BusinessName}}.

Topic: {{.Topic}}
Target Audience: {{.TargetAudience}}

Business Context:
{{.BusinessDescription}}

Writing Style:
- Formality: {{.Formality}}
- Complexity: {{.Complexity}}
- Emotional Tone: {{.Emotion}}

Requirements:
- Keep it professional yet engaging
- Include relevant hashtags
- Maximum length: 3000 characters
- Keywords to include: {{.Keywords}}
- Maintain a {{.Tone}} tone

Focus on providing value and encouraging engagement.`)),

	TypeTwitter: template.Must(template.New(TypeTwitter).Parse(
		`Create a Twitter/X post for {{.BusinessName}} ({{.Industry}}).

Topic: {{.Topic}}
Target Audience: {{.TargetAudience}}

Key Message:
{{.BusinessDescription}}

Style:
- Tone: {{.Tone}}
- Formality: {{.Formality}}
- Emotion: {{.Emotion}}

Requirements:
- Maximum 280 characters
- Include relevant hashtags
- Keywords: {{.Keywords}}
- Make it engaging and shareable`)),
}

// AssemblePrompt renders the provider-ready prompt for one content type. It
// is pure: same inputs always produce the same string.
func AssemblePrompt(topic string, settings Settings, business BusinessContext, voice VoiceProfile) (string, error) {
	tmpl, ok := promptTemplates[settings.Type]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, settings.Type)
	}

	length := defaultLength
	if settings.Length != nil {
		length = strconv.Itoa(*settings.Length)
	}
	keywords := keywordSentinel
	if len(settings.Keywords) > 0 {
		keywords = strings.Join(settings.Keywords, ", ")
	}

	input := promptInput{
		Topic:               topic,
		BusinessName:        business.BusinessName,
		Industry:            business.Industry,
		TargetAudience:      business.TargetAudience,
		BusinessDescription: business.Description,
		Formality:           voice.WritingStyle.Formality,
		Complexity:          voice.WritingStyle.Complexity,
		Emotion:             voice.WritingStyle.Emotion,
		Length:              length,
		Keywords:            keywords,
		Tone:                settings.Tone,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, input); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", settings.Type, err)
	}
	return sb.String(), nil
}
