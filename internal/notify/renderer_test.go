package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/backend/internal/models"
)

var mediaDomains = []string{"files.example.com"}

func sampleEvent() *models.EventConfig {
	return &models.EventConfig{
		Name:      "Summer Hack",
		EndDate:   "2099-12-31",
		BannerURL: "https://cdn.example.com/banner.png",
	}
}

func TestRenderHeader(t *testing.T) {
	n := Render("Alice", sampleEvent(), nil, mediaDomains)

	assert.Equal(t, "🎉 Alice has joined the event!", n.Content)
	assert.Equal(t, "New Participant: Summer Hack", n.Title)
	assert.Equal(t, "Alice", n.Author)
	assert.Equal(t, "https://cdn.example.com/banner.png", n.BannerURL)
	assert.Empty(t, n.Fields)
}

func TestRenderTextAnswers(t *testing.T) {
	answers := []models.Answer{
		models.TextAnswer("Team name?", "The Gophers"),
		models.SkippedAnswer("Portfolio?"),
	}
	n := Render("Alice", sampleEvent(), answers, mediaDomains)

	require.Len(t, n.Fields, 2)
	assert.Equal(t, FieldEntry{Name: "Team name?", Value: "The Gophers"}, n.Fields[0])
	assert.Equal(t, FieldEntry{Name: "Portfolio?", Value: models.SkippedLabel}, n.Fields[1])
	assert.Empty(t, n.HeroImageURL)
	assert.Empty(t, n.FileLinks)
}

func TestRenderHeroPromotion(t *testing.T) {
	answers := []models.Answer{
		models.TextAnswer("Name?", "Alice"),
		models.AttachmentAnswer("Poster?", "https://files.example.com/u/poster.png"),
		models.AttachmentAnswer("Deck?", "https://files.example.com/u/deck.pdf"),
	}
	n := Render("Alice", sampleEvent(), answers, mediaDomains)

	require.Len(t, n.Fields, 3)
	assert.Equal(t, "Alice", n.Fields[0].Value)
	assert.Equal(t, AttachmentPlaceholder, n.Fields[1].Value)
	assert.Equal(t, AttachmentPlaceholder, n.Fields[2].Value)

	// First raster image becomes the hero and is excluded from the links.
	assert.Equal(t, "https://files.example.com/u/poster.png", n.HeroImageURL)
	assert.Equal(t, []string{"https://files.example.com/u/deck.pdf"}, n.FileLinks)
}

func TestRenderOnlyFirstImageIsHero(t *testing.T) {
	answers := []models.Answer{
		models.AttachmentAnswer("A?", "https://files.example.com/a.jpg"),
		models.AttachmentAnswer("B?", "https://files.example.com/b.jpg"),
	}
	n := Render("Alice", sampleEvent(), answers, mediaDomains)

	assert.Equal(t, "https://files.example.com/a.jpg", n.HeroImageURL)
	assert.Equal(t, []string{"https://files.example.com/b.jpg"}, n.FileLinks)
}

func TestRenderVideoNeverHero(t *testing.T) {
	answers := []models.Answer{
		models.AttachmentAnswer("Demo?", "https://files.example.com/demo.mp4"),
	}
	n := Render("Alice", sampleEvent(), answers, mediaDomains)

	assert.Empty(t, n.HeroImageURL)
	assert.Equal(t, []string{"https://files.example.com/demo.mp4"}, n.FileLinks)
}

// URLs outside the media domains are ordinary text, even when they look
// like files.
func TestRenderForeignURLStaysText(t *testing.T) {
	answers := []models.Answer{
		models.TextAnswer("Website?", "https://elsewhere.example.org/pic.png"),
	}
	n := Render("Alice", sampleEvent(), answers, mediaDomains)

	require.Len(t, n.Fields, 1)
	assert.Equal(t, "https://elsewhere.example.org/pic.png", n.Fields[0].Value)
	assert.Empty(t, n.HeroImageURL)
	assert.Empty(t, n.FileLinks)
}

func TestRenderSubdomainMatches(t *testing.T) {
	answers := []models.Answer{
		models.AttachmentAnswer("Poster?", "https://cdn.files.example.com/p.png"),
	}
	n := Render("Alice", sampleEvent(), answers, mediaDomains)
	assert.Equal(t, "https://cdn.files.example.com/p.png", n.HeroImageURL)

	// Suffix without the dot boundary does not match.
	answers = []models.Answer{
		models.AttachmentAnswer("Poster?", "https://evilfiles.example.com.attacker.io/p.png"),
	}
	n = Render("Alice", sampleEvent(), answers, mediaDomains)
	assert.Empty(t, n.HeroImageURL)
	assert.Empty(t, n.FileLinks)
}

func TestRenderIsPure(t *testing.T) {
	answers := []models.Answer{
		models.TextAnswer("Name?", "Alice"),
		models.AttachmentAnswer("Poster?", "https://files.example.com/p.png"),
		models.AttachmentAnswer("Deck?", "https://files.example.com/d.pdf"),
	}
	first := Render("Alice", sampleEvent(), answers, mediaDomains)
	second := Render("Alice", sampleEvent(), answers, mediaDomains)
	assert.Equal(t, first, second)
}
