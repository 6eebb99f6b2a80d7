package intake

import (
	"regexp"
	"strings"

	"github.com/eventdesk/backend/internal/models"
)

// FailureReason classifies why a reply was rejected.
type FailureReason string

const (
	NotANumber        FailureReason = "not_a_number"
	BadFormat         FailureReason = "bad_format"
	MissingAttachment FailureReason = "missing_attachment"
	WrongMediaType    FailureReason = "wrong_media_type"
)

// ValidationError is a per-step rejection. It is consumed by the
// session loop (which re-prompts) and never propagates past it.
type ValidationError struct {
	Reason FailureReason
	// Message is the corrective text sent back to the applicant.
	Message string
}

func (e *ValidationError) Error() string {
	return string(e.Reason) + ": " + e.Message
}

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// IsSkip reports whether a reply is the skip token for this field:
// the field is optional, the text is the literal "skip" (any case) and
// no attachment is present.
func IsSkip(field models.FieldSpec, text string, atts []models.Attachment) bool {
	return !field.Required && len(atts) == 0 && strings.EqualFold(text, "skip")
}

// Validate applies the field type's rule to a reply and returns the
// accepted answer or a ValidationError. The skip check (IsSkip) is the
// caller's responsibility and bypasses validation entirely.
func Validate(field models.FieldSpec, text string, atts []models.Attachment) (models.Answer, *ValidationError) {
	switch field.Type {
	case models.FieldImage, models.FieldVideo, models.FieldPDF:
		return validateMedia(field, text, atts)
	case models.FieldNumber:
		if !digitsOnly(text) {
			return models.Answer{}, &ValidationError{NotANumber, "⚠️ Please enter a number."}
		}
		return models.TextAnswer(field.Question, text), nil
	case models.FieldEmail:
		if !emailPattern.MatchString(text) {
			return models.Answer{}, &ValidationError{BadFormat, "⚠️ Invalid email format."}
		}
		return models.TextAnswer(field.Question, text), nil
	default:
		return models.TextAnswer(field.Question, text), nil
	}
}

func validateMedia(field models.FieldSpec, text string, atts []models.Attachment) (models.Answer, *ValidationError) {
	if len(atts) == 0 {
		if field.Required {
			return models.Answer{}, &ValidationError{MissingAttachment, "⚠️ **No file detected.** Please upload."}
		}
		// Optional media fields fall back to the raw text.
		return models.TextAnswer(field.Question, text), nil
	}
	att := atts[0]
	if !mediaTypeMatches(field.Type, att.ContentType) {
		if field.Required {
			return models.Answer{}, &ValidationError{WrongMediaType, "⚠️ **Incorrect file type.** Try again."}
		}
		return models.TextAnswer(field.Question, text), nil
	}
	return models.AttachmentAnswer(field.Question, att.URL), nil
}

func mediaTypeMatches(t models.FieldType, contentType string) bool {
	switch t {
	case models.FieldImage:
		return strings.HasPrefix(contentType, "image/")
	case models.FieldVideo:
		return strings.HasPrefix(contentType, "video/")
	case models.FieldPDF:
		return strings.Contains(contentType, "pdf")
	}
	return false
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
