package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/notify"
)

// ErrTimeout is returned when an applicant does not reply within the
// configured inactivity window. It ends the session; partial answers
// are discarded.
var ErrTimeout = errors.New("session timed out waiting for a reply")

// State is the session lifecycle state.
type State int

const (
	StateAwaitingReply State = iota
	StateCompleted
	StateTimedOut
)

// Transport sends plain text messages into a channel.
type Transport interface {
	Send(ctx context.Context, channelID uuid.UUID, content string) error
}

// Archiver closes a private channel when a session ends. Failures are
// swallowed: a channel that cannot be archived is not worth aborting for.
type Archiver interface {
	Archive(ctx context.Context, channelID uuid.UUID) error
}

// SubmissionArchive persists completed submissions.
type SubmissionArchive interface {
	Save(ctx context.Context, sub *models.Submission) error
}

// Deps are the collaborators a session drives.
type Deps struct {
	Transport Transport
	Lifecycle Archiver
	Sink      notify.Sink
	Archive   SubmissionArchive // optional
	Logger    *zap.Logger
}

// Session walks one applicant through an event's question list inside a
// private channel. It owns its step index and answer list; the only
// external input is the inbox fed by Registry.Dispatch. Steps are
// strictly sequential: question i+1 is never prompted before question
// i's answer (or skip, or timeout) is recorded.
type Session struct {
	applicantID   uuid.UUID
	applicantName string
	event         *models.EventConfig
	channelID     uuid.UUID
	timeout       time.Duration
	mediaDomains  []string

	deps    Deps
	inbox   <-chan models.ChatMessage
	release func()

	state   State
	answers []models.Answer
}

// SessionConfig describes a new session.
type SessionConfig struct {
	ApplicantID   uuid.UUID
	ApplicantName string
	Event         *models.EventConfig
	ChannelID     uuid.UUID
	StepTimeout   time.Duration
	MediaDomains  []string
}

// NewSession creates a session and claims its channel in the registry.
// Returns an error if the channel already has a session.
func NewSession(cfg SessionConfig, reg *Registry, deps Deps) (*Session, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	inbox, release, ok := reg.Register(cfg.ChannelID, cfg.ApplicantID)
	if !ok {
		return nil, fmt.Errorf("channel %s already has an active session", cfg.ChannelID)
	}
	return &Session{
		applicantID:   cfg.ApplicantID,
		applicantName: cfg.ApplicantName,
		event:         cfg.Event,
		channelID:     cfg.ChannelID,
		timeout:       cfg.StepTimeout,
		mediaDomains:  cfg.MediaDomains,
		deps:          deps,
		inbox:         inbox,
		release:       release,
	}, nil
}

// State returns the session state. Only meaningful once Run returned.
func (s *Session) State() State { return s.state }

// Answers returns the recorded answers. Only meaningful once Run returned.
func (s *Session) Answers() []models.Answer { return s.answers }

// Run drives the session to completion or timeout. It blocks and is
// meant to run on its own goroutine; ctx cancellation aborts silently
// (process shutdown, not an applicant-visible timeout).
func (s *Session) Run(ctx context.Context) {
	defer s.release()

	s.send(ctx, fmt.Sprintf(
		"👋 Hello %s! Welcome to **%s**.\nI'll ask questions here. Only you and admins can see this.",
		s.applicantName, s.event.Name,
	))

	for step := 0; step < len(s.event.Fields); {
		field := s.event.Fields[step]
		s.send(ctx, prompt(field, step, len(s.event.Fields)))

		msg, err := s.await(ctx)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				s.state = StateTimedOut
				s.send(ctx, "❌ Timeout. Run `/join` again.")
				s.closeChannel()
				s.deps.Logger.Info("session timed out",
					zap.String("applicant_id", s.applicantID.String()),
					zap.Int("step", step),
				)
			}
			return
		}

		if IsSkip(field, msg.Content, msg.Attachments) {
			s.answers = append(s.answers, models.SkippedAnswer(field.Question))
			step++
			continue
		}

		answer, verr := Validate(field, msg.Content, msg.Attachments)
		if verr != nil {
			// Re-prompt the same step; the timeout re-arms with the prompt.
			s.send(ctx, verr.Message)
			continue
		}
		s.answers = append(s.answers, answer)
		step++
	}

	s.state = StateCompleted
	s.finish(ctx)
}

// await blocks for the next reply from the applicant in this channel,
// bounded by the step timeout measured from the prompt just sent.
func (s *Session) await(ctx context.Context) (models.ChatMessage, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case msg := <-s.inbox:
		return msg, nil
	case <-timer.C:
		return models.ChatMessage{}, ErrTimeout
	case <-ctx.Done():
		return models.ChatMessage{}, ctx.Err()
	}
}

func (s *Session) finish(ctx context.Context) {
	s.send(ctx, "✅ **Submission Received!** Closing this thread shortly.")

	n := notify.Render(s.applicantName, s.event, s.answers, s.mediaDomains)
	if err := s.deps.Sink.Post(ctx, n); err != nil {
		s.deps.Logger.Error("post submission notification",
			zap.Error(err),
			zap.String("applicant_id", s.applicantID.String()),
		)
		s.send(ctx, "❌ Error publishing your submission. An admin has been notified.")
	}

	if s.deps.Archive != nil {
		sub := &models.Submission{
			EventName:     s.event.Name,
			ApplicantID:   s.applicantID,
			ApplicantName: s.applicantName,
			Answers:       s.answers,
		}
		if err := s.deps.Archive.Save(ctx, sub); err != nil {
			s.deps.Logger.Error("archive submission", zap.Error(err),
				zap.String("applicant_id", s.applicantID.String()))
		}
	}

	s.closeChannel()
	s.deps.Logger.Info("submission completed",
		zap.String("applicant_id", s.applicantID.String()),
		zap.String("event", s.event.Name),
		zap.Int("answers", len(s.answers)),
	)
}

func (s *Session) send(ctx context.Context, content string) {
	if err := s.deps.Transport.Send(ctx, s.channelID, content); err != nil {
		s.deps.Logger.Warn("send to intake channel",
			zap.Error(err), zap.String("channel_id", s.channelID.String()))
	}
}

// closeChannel archives the private channel, best-effort.
func (s *Session) closeChannel() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.deps.Lifecycle.Archive(ctx, s.channelID)
}

func prompt(f models.FieldSpec, step, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Question %d/%d:**\n%s", step+1, total, f.Question)
	if f.Required {
		b.WriteString(" *(Required)*")
	} else {
		b.WriteString(" *(Type 'skip' to skip)*")
	}
	switch f.Type {
	case models.FieldImage:
		b.WriteString("\n🖼️ **Upload an Image (PNG/JPG).**")
	case models.FieldVideo:
		b.WriteString("\n🎥 **Upload a Video (MP4/MOV).**")
	case models.FieldPDF:
		b.WriteString("\n📄 **Upload a PDF.**")
	}
	return b.String()
}
