package notify

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/eventdesk/backend/internal/models"
)

// AttachmentPlaceholder replaces a file URL in the field list; the file
// itself is shown as the hero image or a standalone link.
const AttachmentPlaceholder = "*(See attachment below)*"

// imageExtensions is the raster set eligible for hero promotion.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// FieldEntry is one (label, value) pair in a rendered notification.
type FieldEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notification is the structured outbound message for a completed
// submission: header, ordered field entries, an optional hero image and
// standalone links for the remaining files.
type Notification struct {
	Content      string       `json:"content"`
	Title        string       `json:"title"`
	Author       string       `json:"author"`
	BannerURL    string       `json:"banner_url,omitempty"`
	Fields       []FieldEntry `json:"fields"`
	HeroImageURL string       `json:"hero_image_url,omitempty"`
	FileLinks    []string     `json:"file_links,omitempty"`
}

// Render converts a completed answer set into a Notification. It is a
// pure function of its inputs: rendering the same submission twice
// yields identical output.
//
// Answers whose value is a URL on one of mediaDomains are file answers:
// their field entry becomes a placeholder, the first raster-image URL is
// promoted to the hero slot, and every other file URL is listed as a
// standalone link. A file URL is never both hero and link.
func Render(applicant string, cfg *models.EventConfig, answers []models.Answer, mediaDomains []string) Notification {
	n := Notification{
		Content:   fmt.Sprintf("🎉 %s has joined the event!", applicant),
		Title:     "New Participant: " + cfg.Name,
		Author:    applicant,
		BannerURL: cfg.BannerURL,
	}

	var fileURLs []string
	for _, a := range answers {
		val := a.Display()
		if !isMediaURL(val, mediaDomains) {
			n.Fields = append(n.Fields, FieldEntry{Name: a.Question, Value: val})
			continue
		}
		fileURLs = append(fileURLs, val)
		n.Fields = append(n.Fields, FieldEntry{Name: a.Question, Value: AttachmentPlaceholder})
		if n.HeroImageURL == "" && isImageURL(val) {
			n.HeroImageURL = val
		}
	}

	for _, u := range fileURLs {
		if u == n.HeroImageURL {
			continue
		}
		n.FileLinks = append(n.FileLinks, u)
	}
	return n
}

// isMediaURL reports whether val is a URL whose host is (a subdomain
// of) one of the configured media storage domains.
func isMediaURL(val string, domains []string) bool {
	u, err := url.Parse(val)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// isImageURL reports whether the URL path carries a raster image extension.
func isImageURL(val string) bool {
	u, err := url.Parse(val)
	if err != nil {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}
