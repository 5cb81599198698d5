package image

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BuildPromotionalPrompt converts a request into the natural language
// instruction sent to the model. It emphasises that the uploaded photo is the
// subject and that the composition must fill the requested canvas.
func BuildPromotionalPrompt(req Request) string {
	var lines []string

	purpose := strings.TrimSpace(req.Purpose)
	if purpose != "" {
		titler := cases.Title(language.Und)
		lines = append(lines, fmt.Sprintf("Create a promotional image for %s.", titler.String(purpose)))
	} else {
		lines = append(lines, "Create a promotional image for the featured product.")
	}

	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		lines = append(lines, prompt)
	}

	if !req.Source.IsZero() {
		lines = append(lines, "Use the uploaded photo as the main subject. Preserve its shape, texture, and logo without warping.")
	}

	if req.Width > 0 && req.Height > 0 {
		lines = append(lines, fmt.Sprintf("Compose for a %dx%d pixel canvas.", req.Width, req.Height))
	}

	if locale := NormalizeLocale(req.Locale); locale != "" {
		lines = append(lines, fmt.Sprintf("Use %s language for any on-image typography or signage.", strings.ToUpper(locale)))
	}

	return strings.Join(lines, "\n")
}

// NormalizeLocale reduces a free-form locale tag to its base language, falling
// back to English when the tag cannot be parsed.
func NormalizeLocale(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "en"
	}
	base, _ := parsed.Base()
	return base.String()
}
