package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		in   string
		want FieldType
	}{
		{"image", FieldImage},
		{"img", FieldImage},
		{"Photo", FieldImage},
		{"profile image please", FieldImage},
		{"video", FieldVideo},
		{"vid", FieldVideo},
		{"pdf", FieldPDF},
		{"PDF document", FieldPDF},
		{"number", FieldNumber},
		{"num", FieldNumber},
		{"email", FieldEmail},
		{"e-mail", FieldEmail},
		{"text", FieldText},
		{"anything else", FieldText},
		{"", FieldText},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFieldType(tt.in))
		})
	}
}

func TestFieldTypeIsMedia(t *testing.T) {
	assert.True(t, FieldImage.IsMedia())
	assert.True(t, FieldVideo.IsMedia())
	assert.True(t, FieldPDF.IsMedia())
	assert.False(t, FieldText.IsMedia())
	assert.False(t, FieldNumber.IsMedia())
	assert.False(t, FieldEmail.IsMedia())
}

func TestEventConfigEndsAt(t *testing.T) {
	e := EventConfig{Name: "e", EndDate: "2026-08-29"}
	ends, err := e.EndsAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), ends)

	e.EndDate = "29/08/2026"
	_, err = e.EndsAt()
	assert.Error(t, err)
}

func TestEventConfigValidate(t *testing.T) {
	valid := EventConfig{
		Name:    "Summer Hack",
		EndDate: "2099-12-31",
		Fields: []FieldSpec{
			{Question: "Team name?", Type: FieldText, Required: true},
		},
	}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.Name = "  "
	assert.Error(t, noName.Validate())

	badDate := valid
	badDate.EndDate = "soon"
	assert.Error(t, badDate.Validate())

	emptyQuestion := valid
	emptyQuestion.Fields = []FieldSpec{{Question: "", Type: FieldText}}
	assert.Error(t, emptyQuestion.Validate())

	badType := valid
	badType.Fields = []FieldSpec{{Question: "q", Type: FieldType("audio")}}
	assert.Error(t, badType.Validate())

	tooMany := valid
	tooMany.Fields = nil
	for i := 0; i <= MaxFields; i++ {
		tooMany.Fields = append(tooMany.Fields, FieldSpec{Question: "q", Type: FieldText})
	}
	assert.Error(t, tooMany.Validate())
}

func TestAnswerDisplay(t *testing.T) {
	assert.Equal(t, "Alice", TextAnswer("q", "Alice").Display())
	assert.Equal(t, "https://x/a.png", AttachmentAnswer("q", "https://x/a.png").Display())
	assert.Equal(t, SkippedLabel, SkippedAnswer("q").Display())
}
