package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAttachmentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		ok          bool
	}{
		{"png by type", "image/png", "poster", true},
		{"pdf by type", "application/pdf", "deck", true},
		{"mov by type", "video/quicktime", "demo", true},
		{"jpg by extension", "", "photo.JPG", true},
		{"mp4 by extension", "application/octet-stream", "demo.mp4", true},
		{"executable rejected", "application/x-msdownload", "setup.exe", false},
		{"svg rejected", "image/svg+xml", "icon.svg", false},
		{"nothing to go on", "", "README", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, ValidateAttachmentType(tt.contentType, tt.filename))
		})
	}
}

func TestAttachmentKey(t *testing.T) {
	assert.Equal(t, "attachments/u-123/poster.png", AttachmentKey("u-123", "poster.png"))
	// Path traversal in the filename is stripped.
	assert.Equal(t, "attachments/u-123/secrets.txt", AttachmentKey("u-123", "../../secrets.txt"))
}

func TestPublicURL(t *testing.T) {
	s := &S3{cfg: S3Config{Region: "us-east-1", Bucket: "eventdesk-attachments"}}
	assert.Equal(t,
		"https://eventdesk-attachments.s3.us-east-1.amazonaws.com/attachments/u/p.png",
		s.PublicURL("attachments/u/p.png"),
	)
}
