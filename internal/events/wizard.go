package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/intake"
	"github.com/eventdesk/backend/internal/models"
)

// Wizard is the admin-side authoring state machine: it walks an admin
// through creating an EventConfig in a private channel. It shares the
// inbox/timeout plumbing with applicant sessions but is a separate
// machine; the two only meet at the EventConfig value.
type Wizard struct {
	adminID   uuid.UUID
	channelID uuid.UUID
	timeout   time.Duration

	store     Store
	transport intake.Transport
	lifecycle intake.Archiver
	logger    *zap.Logger

	inbox   <-chan models.ChatMessage
	release func()
}

// WizardConfig describes a new authoring wizard.
type WizardConfig struct {
	AdminID     uuid.UUID
	ChannelID   uuid.UUID
	StepTimeout time.Duration
}

// NewWizard creates a wizard and claims its channel in the registry.
func NewWizard(cfg WizardConfig, reg *intake.Registry, store Store, transport intake.Transport, lifecycle intake.Archiver, logger *zap.Logger) (*Wizard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	inbox, release, ok := reg.Register(cfg.ChannelID, cfg.AdminID)
	if !ok {
		return nil, fmt.Errorf("channel %s already has an active session", cfg.ChannelID)
	}
	return &Wizard{
		adminID:   cfg.AdminID,
		channelID: cfg.ChannelID,
		timeout:   cfg.StepTimeout,
		store:     store,
		transport: transport,
		lifecycle: lifecycle,
		logger:    logger,
		inbox:     inbox,
		release:   release,
	}, nil
}

// Run drives the wizard to a saved event or a timeout. Blocks; meant
// for its own goroutine.
func (w *Wizard) Run(ctx context.Context) {
	defer w.release()
	defer w.closeChannel()

	cfg := &models.EventConfig{}

	w.send(ctx, "Let's create a new event. What is the event name?")
	name, err := w.await(ctx)
	if err != nil {
		w.timeoutNotice(ctx, err)
		return
	}
	cfg.Name = strings.TrimSpace(name)

	for {
		w.send(ctx, "End date? (YYYY-MM-DD)")
		date, err := w.await(ctx)
		if err != nil {
			w.timeoutNotice(ctx, err)
			return
		}
		cfg.EndDate = strings.TrimSpace(date)
		if _, err := cfg.EndsAt(); err == nil {
			break
		}
		w.send(ctx, "❌ Invalid date format.")
	}

	w.send(ctx, "Banner image URL? *(Type 'skip' for none)*")
	banner, err := w.await(ctx)
	if err != nil {
		w.timeoutNotice(ctx, err)
		return
	}
	if !strings.EqualFold(strings.TrimSpace(banner), "skip") {
		cfg.BannerURL = strings.TrimSpace(banner)
	}

	for len(cfg.Fields) < models.MaxFields {
		w.send(ctx, fmt.Sprintf(
			"Question %d: reply with the prompt text, or 'done' to finish. (Max %d questions)",
			len(cfg.Fields)+1, models.MaxFields,
		))
		question, err := w.await(ctx)
		if err != nil {
			w.timeoutNotice(ctx, err)
			return
		}
		if strings.EqualFold(strings.TrimSpace(question), "done") {
			break
		}

		w.send(ctx, "Type? (text, number, email, image, video, pdf)")
		typeLabel, err := w.await(ctx)
		if err != nil {
			w.timeoutNotice(ctx, err)
			return
		}

		w.send(ctx, "Is it required? (yes/no)")
		required, err := w.await(ctx)
		if err != nil {
			w.timeoutNotice(ctx, err)
			return
		}

		field := models.FieldSpec{
			Question: strings.TrimSpace(question),
			Type:     models.ParseFieldType(typeLabel),
			Required: parseYes(required),
		}
		cfg.Fields = append(cfg.Fields, field)

		marker := "(Optional)"
		if field.Required {
			marker = "*(Required)*"
		}
		w.send(ctx, fmt.Sprintf("Added: **%s** [%s] %s", field.Question, field.Type, marker))
	}
	if len(cfg.Fields) == models.MaxFields {
		w.send(ctx, fmt.Sprintf("Maximum %d questions reached.", models.MaxFields))
	}

	if err := cfg.Validate(); err != nil {
		w.send(ctx, "❌ Error saving event: "+err.Error())
		return
	}
	if err := w.store.Save(ctx, cfg); err != nil {
		w.logger.Error("save event", zap.Error(err), zap.String("admin_id", w.adminID.String()))
		w.send(ctx, "❌ Error saving event.")
		return
	}
	w.send(ctx, "✅ Event saved and published!")
	w.logger.Info("event published",
		zap.String("event", cfg.Name),
		zap.String("end_date", cfg.EndDate),
		zap.Int("fields", len(cfg.Fields)),
	)
}

func (w *Wizard) await(ctx context.Context) (string, error) {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()
	select {
	case msg := <-w.inbox:
		return msg.Content, nil
	case <-timer.C:
		return "", intake.ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (w *Wizard) timeoutNotice(ctx context.Context, err error) {
	if errors.Is(err, intake.ErrTimeout) {
		w.send(ctx, "❌ Timeout. Run `/new_event` again.")
	}
}

func (w *Wizard) send(ctx context.Context, content string) {
	if err := w.transport.Send(ctx, w.channelID, content); err != nil {
		w.logger.Warn("send to setup channel",
			zap.Error(err), zap.String("channel_id", w.channelID.String()))
	}
}

func (w *Wizard) closeChannel() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = w.lifecycle.Archive(ctx, w.channelID)
}

func parseYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}
