package models

import (
	"fmt"
	"strings"
	"time"
)

// EndDateLayout is the calendar date format used for event deadlines.
const EndDateLayout = "2006-01-02"

// MaxFields is the maximum number of questions an event may carry.
const MaxFields = 10

// FieldType identifies the expected answer type of a question.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldEmail  FieldType = "email"
	FieldImage  FieldType = "image"
	FieldVideo  FieldType = "video"
	FieldPDF    FieldType = "pdf"
)

// ParseFieldType normalizes a free-form type label from the authoring
// surface. Unrecognized labels fall back to text.
func ParseFieldType(s string) FieldType {
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(t, "img"), strings.Contains(t, "image"), strings.Contains(t, "photo"):
		return FieldImage
	case strings.Contains(t, "vid"):
		return FieldVideo
	case strings.Contains(t, "pdf"):
		return FieldPDF
	case strings.Contains(t, "num"):
		return FieldNumber
	case strings.Contains(t, "mail"):
		return FieldEmail
	default:
		return FieldText
	}
}

// IsMedia reports whether the field type expects a file upload.
func (t FieldType) IsMedia() bool {
	return t == FieldImage || t == FieldVideo || t == FieldPDF
}

// FieldSpec is one question in an event's ordered question list.
type FieldSpec struct {
	Question string    `json:"question"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// EventConfig is the authored event: name, deadline and ordered typed
// question list. The field order is the presentation and answer order.
type EventConfig struct {
	Name      string      `json:"name"`
	EndDate   string      `json:"end_date"` // YYYY-MM-DD
	BannerURL string      `json:"banner,omitempty"`
	Fields    []FieldSpec `json:"fields"`
}

// EndsAt parses the event deadline.
func (e *EventConfig) EndsAt() (time.Time, error) {
	return time.Parse(EndDateLayout, e.EndDate)
}

// Validate checks authoring-time invariants.
func (e *EventConfig) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("event name is required")
	}
	if _, err := e.EndsAt(); err != nil {
		return fmt.Errorf("invalid end date %q: expected %s", e.EndDate, EndDateLayout)
	}
	if len(e.Fields) > MaxFields {
		return fmt.Errorf("too many fields: %d (max %d)", len(e.Fields), MaxFields)
	}
	for i, f := range e.Fields {
		if strings.TrimSpace(f.Question) == "" {
			return fmt.Errorf("field %d: question is required", i+1)
		}
		switch f.Type {
		case FieldText, FieldNumber, FieldEmail, FieldImage, FieldVideo, FieldPDF:
		default:
			return fmt.Errorf("field %d: unknown type %q", i+1, f.Type)
		}
	}
	return nil
}
