package models

// AnswerKind distinguishes how an answer value should be interpreted.
type AnswerKind string

const (
	// AnswerText is a plain text reply.
	AnswerText AnswerKind = "text"
	// AnswerAttachment is the retrieval URL of an uploaded file.
	AnswerAttachment AnswerKind = "attachment"
	// AnswerSkipped marks an optional question the applicant skipped.
	AnswerSkipped AnswerKind = "skipped"
)

// SkippedLabel is the literal shown for skipped answers in rendered output.
const SkippedLabel = "Skipped"

// Answer is one recorded reply. Question is a copy of the FieldSpec
// question at ask-time; answers are appended in field order.
type Answer struct {
	Question string     `json:"question"`
	Kind     AnswerKind `json:"kind"`
	Value    string     `json:"value,omitempty"`
}

// TextAnswer builds a plain text answer.
func TextAnswer(question, value string) Answer {
	return Answer{Question: question, Kind: AnswerText, Value: value}
}

// AttachmentAnswer builds an answer holding an uploaded file URL.
func AttachmentAnswer(question, url string) Answer {
	return Answer{Question: question, Kind: AnswerAttachment, Value: url}
}

// SkippedAnswer builds the skip sentinel for an optional question.
func SkippedAnswer(question string) Answer {
	return Answer{Question: question, Kind: AnswerSkipped}
}

// Display returns the value rendered into notifications: the literal
// value for text and attachments, the Skipped label for skips.
func (a Answer) Display() string {
	if a.Kind == AnswerSkipped {
		return SkippedLabel
	}
	return a.Value
}
