package intake

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/notify"
)

type fakeTransport struct {
	sent []string
}

func (f *fakeTransport) Send(ctx context.Context, channelID uuid.UUID, content string) error {
	f.sent = append(f.sent, content)
	return nil
}

type fakeLifecycle struct {
	archived []uuid.UUID
}

func (f *fakeLifecycle) Archive(ctx context.Context, channelID uuid.UUID) error {
	f.archived = append(f.archived, channelID)
	return nil
}

type fakeSink struct {
	posted []notify.Notification
}

func (f *fakeSink) Post(ctx context.Context, n notify.Notification) error {
	f.posted = append(f.posted, n)
	return nil
}

type fakeArchive struct {
	saved []*models.Submission
}

func (f *fakeArchive) Save(ctx context.Context, sub *models.Submission) error {
	f.saved = append(f.saved, sub)
	return nil
}

type sessionHarness struct {
	session   *Session
	registry  *Registry
	transport *fakeTransport
	lifecycle *fakeLifecycle
	sink      *fakeSink
	archive   *fakeArchive
	channelID uuid.UUID
	ownerID   uuid.UUID
}

func newHarness(t *testing.T, event *models.EventConfig, timeout time.Duration) *sessionHarness {
	t.Helper()
	h := &sessionHarness{
		registry:  NewRegistry(),
		transport: &fakeTransport{},
		lifecycle: &fakeLifecycle{},
		sink:      &fakeSink{},
		archive:   &fakeArchive{},
		channelID: uuid.New(),
		ownerID:   uuid.New(),
	}
	session, err := NewSession(SessionConfig{
		ApplicantID:   h.ownerID,
		ApplicantName: "Alice",
		Event:         event,
		ChannelID:     h.channelID,
		StepTimeout:   timeout,
		MediaDomains:  []string{"files.example.com"},
	}, h.registry, Deps{
		Transport: h.transport,
		Lifecycle: h.lifecycle,
		Sink:      h.sink,
		Archive:   h.archive,
	})
	require.NoError(t, err)
	h.session = session
	return h
}

// reply queues an applicant message; the inbox is buffered so replies
// can be staged before Run consumes them.
func (h *sessionHarness) reply(t *testing.T, content string, atts ...models.Attachment) {
	t.Helper()
	require.True(t, h.registry.Dispatch(models.ChatMessage{
		ChannelID:   h.channelID,
		AuthorID:    h.ownerID,
		Content:     content,
		Attachments: atts,
	}))
}

func twoFieldEvent() *models.EventConfig {
	return &models.EventConfig{
		Name:    "Summer Hack",
		EndDate: "2099-12-31",
		Fields: []models.FieldSpec{
			{Question: "Your team name?", Type: models.FieldText, Required: true},
			{Question: "Team size?", Type: models.FieldNumber, Required: true},
		},
	}
}

func TestSessionCompletes(t *testing.T) {
	h := newHarness(t, twoFieldEvent(), time.Second)
	h.reply(t, "The Gophers")
	h.reply(t, "4")

	h.session.Run(context.Background())

	assert.Equal(t, StateCompleted, h.session.State())
	answers := h.session.Answers()
	require.Len(t, answers, 2)
	assert.Equal(t, "The Gophers", answers[0].Value)
	assert.Equal(t, "4", answers[1].Value)

	require.Len(t, h.sink.posted, 1)
	assert.Equal(t, "Alice", h.sink.posted[0].Author)

	require.Len(t, h.archive.saved, 1)
	assert.Equal(t, "Summer Hack", h.archive.saved[0].EventName)
	assert.Equal(t, h.ownerID, h.archive.saved[0].ApplicantID)

	assert.Equal(t, []uuid.UUID{h.channelID}, h.lifecycle.archived)
	assert.Equal(t, 0, h.registry.Len(), "session releases its channel")
}

func TestSessionPromptsInOrder(t *testing.T) {
	h := newHarness(t, twoFieldEvent(), time.Second)
	h.reply(t, "The Gophers")
	h.reply(t, "4")

	h.session.Run(context.Background())

	require.GreaterOrEqual(t, len(h.transport.sent), 4)
	assert.Contains(t, h.transport.sent[0], "👋 Hello Alice!")
	assert.Contains(t, h.transport.sent[0], "Summer Hack")
	assert.Contains(t, h.transport.sent[1], "Question 1/2")
	assert.Contains(t, h.transport.sent[1], "Your team name?")
	assert.Contains(t, h.transport.sent[2], "Question 2/2")
	assert.Contains(t, h.transport.sent[len(h.transport.sent)-1], "Submission Received")
}

func TestSessionRetriesInvalidReply(t *testing.T) {
	h := newHarness(t, twoFieldEvent(), time.Second)
	h.reply(t, "The Gophers")
	h.reply(t, "four") // rejected
	h.reply(t, "4")

	h.session.Run(context.Background())

	assert.Equal(t, StateCompleted, h.session.State())
	require.Len(t, h.session.Answers(), 2)
	assert.Equal(t, "4", h.session.Answers()[1].Value)
	assert.Contains(t, h.transport.sent, "⚠️ Please enter a number.")

	// The same question is asked again after the corrective message.
	prompts := 0
	for _, m := range h.transport.sent {
		if strings.Contains(m, "Question 2/2") {
			prompts++
		}
	}
	assert.Equal(t, 2, prompts)
}

func TestSessionSkipOptionalField(t *testing.T) {
	event := &models.EventConfig{
		Name:    "Summer Hack",
		EndDate: "2099-12-31",
		Fields: []models.FieldSpec{
			{Question: "Portfolio PDF?", Type: models.FieldPDF, Required: false},
		},
	}
	h := newHarness(t, event, time.Second)
	h.reply(t, "Skip")

	h.session.Run(context.Background())

	assert.Equal(t, StateCompleted, h.session.State())
	require.Len(t, h.session.Answers(), 1)
	assert.Equal(t, models.AnswerSkipped, h.session.Answers()[0].Kind)
	assert.Equal(t, models.SkippedLabel, h.session.Answers()[0].Display())
}

func TestSessionAcceptsAttachment(t *testing.T) {
	event := &models.EventConfig{
		Name:    "Summer Hack",
		EndDate: "2099-12-31",
		Fields: []models.FieldSpec{
			{Question: "Upload your poster.", Type: models.FieldImage, Required: true},
		},
	}
	h := newHarness(t, event, time.Second)
	h.reply(t, "", models.Attachment{URL: "https://files.example.com/u/poster.png", ContentType: "image/png"})

	h.session.Run(context.Background())

	assert.Equal(t, StateCompleted, h.session.State())
	require.Len(t, h.session.Answers(), 1)
	assert.Equal(t, models.AnswerAttachment, h.session.Answers()[0].Kind)
	assert.Equal(t, "https://files.example.com/u/poster.png", h.session.Answers()[0].Value)

	require.Len(t, h.sink.posted, 1)
	assert.Equal(t, "https://files.example.com/u/poster.png", h.sink.posted[0].HeroImageURL)
}

func TestSessionTimesOut(t *testing.T) {
	h := newHarness(t, twoFieldEvent(), 20*time.Millisecond)

	h.session.Run(context.Background())

	assert.Equal(t, StateTimedOut, h.session.State())
	assert.Empty(t, h.sink.posted, "timed out sessions publish nothing")
	assert.Empty(t, h.archive.saved)
	assert.Equal(t, []uuid.UUID{h.channelID}, h.lifecycle.archived)
	assert.Contains(t, h.transport.sent[len(h.transport.sent)-1], "❌ Timeout")
	assert.Equal(t, 0, h.registry.Len())
}

func TestSessionContextCancelAbortsSilently(t *testing.T) {
	h := newHarness(t, twoFieldEvent(), time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.session.Run(ctx)

	assert.Equal(t, StateAwaitingReply, h.session.State())
	assert.Empty(t, h.sink.posted)
	assert.Empty(t, h.lifecycle.archived, "shutdown does not archive channels")
	assert.Equal(t, 0, h.registry.Len())
}
