package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/events"
	"github.com/eventdesk/backend/internal/gateway"
	"github.com/eventdesk/backend/internal/intake"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/internal/notify"
)

// Router dispatches inbound chat messages: replies addressed to an
// in-flight session go to its inbox, slash commands are executed, and
// everything else is broadcast as ordinary chat.
type Router struct {
	hub      *gateway.Hub
	registry *intake.Registry
	store    events.Store
	sink     notify.Sink
	archive  intake.SubmissionArchive

	stepTimeout  time.Duration
	mediaDomains []string

	// baseCtx parents all session goroutines so shutdown cancels them.
	baseCtx context.Context
	logger  *zap.Logger
}

// Config wires a command router.
type Config struct {
	Hub          *gateway.Hub
	Registry     *intake.Registry
	Store        events.Store
	Sink         notify.Sink
	Archive      intake.SubmissionArchive // optional
	StepTimeout  time.Duration
	MediaDomains []string
	BaseCtx      context.Context
	Logger       *zap.Logger
}

// NewRouter creates the chat command router.
func NewRouter(cfg Config) *Router {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.BaseCtx == nil {
		cfg.BaseCtx = context.Background()
	}
	return &Router{
		hub:          cfg.Hub,
		registry:     cfg.Registry,
		store:        cfg.Store,
		sink:         cfg.Sink,
		archive:      cfg.Archive,
		stepTimeout:  cfg.StepTimeout,
		mediaDomains: cfg.MediaDomains,
		baseCtx:      cfg.BaseCtx,
		logger:       cfg.Logger,
	}
}

// Handle is the gateway's message handler. It must not block: session
// inbox delivery is non-blocking and commands are quick.
func (r *Router) Handle(msg models.ChatMessage) {
	if r.registry.Dispatch(msg) {
		// Echo the reply so admins watching the channel see it too.
		r.broadcast(msg)
		return
	}

	content := strings.TrimSpace(msg.Content)
	if strings.HasPrefix(content, "/") {
		ctx, cancel := context.WithTimeout(r.baseCtx, 10*time.Second)
		defer cancel()
		r.command(ctx, msg, content)
		return
	}
	r.broadcast(msg)
}

func (r *Router) command(ctx context.Context, msg models.ChatMessage, content string) {
	cmd := strings.Fields(content)[0]
	switch cmd {
	case "/join":
		r.join(ctx, msg)
	case "/new_event":
		r.newEvent(ctx, msg)
	case "/about":
		r.about(ctx, msg)
	default:
		r.reply(ctx, msg, fmt.Sprintf("Unknown command %s. Try /join, /new_event or /about.", cmd))
	}
}

// join runs the eligibility gate and starts an application session in a
// fresh private channel.
func (r *Router) join(ctx context.Context, msg models.ChatMessage) {
	cfg, err := r.store.Load(ctx)
	if err != nil {
		if errors.Is(err, events.ErrNoEvent) {
			r.reply(ctx, msg, "📭 No active events.")
			return
		}
		r.logger.Error("load event", zap.Error(err))
		r.reply(ctx, msg, "❌ Error loading the event. Try again later.")
		return
	}
	if err := events.Gate(cfg, time.Now()); err != nil {
		r.reply(ctx, msg, "🔒 Event ended.")
		return
	}
	if r.registry.HasOwner(msg.AuthorID) {
		r.reply(ctx, msg, "You already have an application in progress.")
		return
	}

	name := "apply-" + slug(msg.AuthorName)
	channelID, err := r.hub.CreatePrivateChannel(ctx, msg.AuthorID, name)
	if err != nil {
		r.logger.Error("create private channel", zap.Error(err),
			zap.String("user_id", msg.AuthorID.String()))
		r.reply(ctx, msg, "❌ **Permission Error**: could not open a private channel.")
		return
	}

	session, err := intake.NewSession(intake.SessionConfig{
		ApplicantID:   msg.AuthorID,
		ApplicantName: msg.AuthorName,
		Event:         cfg,
		ChannelID:     channelID,
		StepTimeout:   r.stepTimeout,
		MediaDomains:  r.mediaDomains,
	}, r.registry, intake.Deps{
		Transport: r.hub,
		Lifecycle: r.hub,
		Sink:      r.sink,
		Archive:   r.archive,
		Logger:    r.logger,
	})
	if err != nil {
		_ = r.hub.Archive(ctx, channelID)
		r.reply(ctx, msg, "❌ Could not start your application. Try again.")
		return
	}

	r.reply(ctx, msg, fmt.Sprintf("📩 Application opened: #%s", name))
	go session.Run(r.baseCtx)
	r.logger.Info("application session started",
		zap.String("applicant_id", msg.AuthorID.String()),
		zap.String("channel", name),
		zap.String("event", cfg.Name),
	)
}

// newEvent starts the admin authoring wizard in a private channel.
func (r *Router) newEvent(ctx context.Context, msg models.ChatMessage) {
	if msg.AuthorRole != models.RoleAdmin {
		r.reply(ctx, msg, "⛔ Not authorized.")
		return
	}
	if r.registry.HasOwner(msg.AuthorID) {
		r.reply(ctx, msg, "You already have a setup in progress.")
		return
	}

	name := "setup-" + slug(msg.AuthorName)
	channelID, err := r.hub.CreatePrivateChannel(ctx, msg.AuthorID, name)
	if err != nil {
		r.logger.Error("create setup channel", zap.Error(err))
		r.reply(ctx, msg, "❌ Could not open a setup channel.")
		return
	}

	wizard, err := events.NewWizard(events.WizardConfig{
		AdminID:     msg.AuthorID,
		ChannelID:   channelID,
		StepTimeout: r.stepTimeout,
	}, r.registry, r.store, r.hub, r.hub, r.logger)
	if err != nil {
		_ = r.hub.Archive(ctx, channelID)
		r.reply(ctx, msg, "❌ Could not start event setup. Try again.")
		return
	}

	r.reply(ctx, msg, fmt.Sprintf("🛠️ Event setup opened: #%s", name))
	go wizard.Run(r.baseCtx)
}

func (r *Router) about(ctx context.Context, msg models.ChatMessage) {
	r.reply(ctx, msg,
		"**Event Desk**: chat-based event applications.\n"+
			"Commands: `/join` to apply to the current event, `/new_event` to author one (admins), `/about` for this message.")
}

// reply sends a service message into the channel the command came from.
func (r *Router) reply(ctx context.Context, msg models.ChatMessage, content string) {
	if err := r.hub.Send(ctx, msg.ChannelID, content); err != nil {
		r.logger.Warn("command reply", zap.Error(err),
			zap.String("channel_id", msg.ChannelID.String()))
	}
}

// broadcast fans a user chat message out to the channel.
func (r *Router) broadcast(msg models.ChatMessage) {
	ctx, cancel := context.WithTimeout(r.baseCtx, 5*time.Second)
	defer cancel()
	if err := r.hub.Publish(ctx, msg.ChannelID, gateway.EventChatMessage, msg); err != nil &&
		!errors.Is(err, gateway.ErrChannelClosed) {
		r.logger.Warn("broadcast chat", zap.Error(err))
	}
}

// slug turns a display name into a channel-safe fragment.
func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return uuid.New().String()[:8]
	}
	return b.String()
}
