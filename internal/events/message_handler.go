// Package events drives the inbound message pipeline: roster bookkeeping,
// spam and mute enforcement, content filters and finally command dispatch.
package events

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wardbot/backend/config"
	"github.com/wardbot/backend/internal/dispatcher"
	"github.com/wardbot/backend/internal/guard"
	"github.com/wardbot/backend/internal/platform"
	"github.com/wardbot/backend/internal/repository"
)

// MessageHandler processes every inbound event. Errors inside the pipeline
// are logged, never propagated; one bad message must not take the engine
// down.
type MessageHandler struct {
	cfg           *config.Config
	client        platform.Client
	actors        *repository.ActorRepository
	conversations *repository.ConversationRepository
	settings      *repository.SettingsRepository
	moderation    *repository.ModerationRepository
	guard         *guard.CooldownManager
	dispatcher    *dispatcher.Dispatcher

	// LinkDetector and ProfanityDetector classify message text for the
	// group filters. Nil disables the corresponding filter.
	LinkDetector      func(text string) bool
	ProfanityDetector func(text string) bool
}

func NewMessageHandler(cfg *config.Config, client platform.Client, actors *repository.ActorRepository, conversations *repository.ConversationRepository, settings *repository.SettingsRepository, moderation *repository.ModerationRepository, g *guard.CooldownManager, disp *dispatcher.Dispatcher) *MessageHandler {
	return &MessageHandler{
		cfg:           cfg,
		client:        client,
		actors:        actors,
		conversations: conversations,
		settings:      settings,
		moderation:    moderation,
		guard:         g,
		dispatcher:    disp,
	}
}

// Handle runs one event through the pipeline.
func (h *MessageHandler) Handle(ctx context.Context, ev *platform.Event) {
	if ev.ActorID == "" {
		log.Printf("Unable to resolve message actor, skipping processing")
		return
	}

	displayName, phone := "", ""
	if contact, err := h.client.ResolveContact(ctx, ev.ActorID); err == nil && contact != nil {
		displayName, phone = contact.DisplayName, contact.Phone
	}
	h.actors.Upsert(ev.ActorID, displayName, phone)

	if ev.IsGroup() {
		h.conversations.Upsert(ev.ConversationID, "", "")
	}

	if h.actors.IsBlocked(ev.ActorID) {
		return
	}

	if h.settings.Feature("antiSpam", h.cfg.Features.AntiSpam) &&
		h.guard.IsSpamming(ev.ActorID, h.cfg.Moderation.MaxMessagesPerMinute) {
		log.Printf("Spam detected from %s", ev.ActorID)
		h.reply(ctx, ev, "Please slow down! You are sending messages too quickly.")
		return
	}

	if ev.IsGroup() && h.enforceMute(ctx, ev) {
		return
	}

	isCommand := strings.HasPrefix(ev.Text, h.cfg.Bot.Prefix)

	if ev.IsGroup() && !isCommand {
		h.applyGroupFilters(ctx, ev)
	}

	if isCommand {
		log.Printf("Command detected from %s: %s", ev.ActorID, ev.Text)
		h.dispatcher.Dispatch(ctx, ev)
	}
}

// enforceMute deletes messages from actively muted actors and sends a
// throttled notice. Returns true when the message was swallowed.
func (h *MessageHandler) enforceMute(ctx context.Context, ev *platform.Event) bool {
	mute := h.moderation.ActiveMute(ev.ActorID, ev.ConversationID)
	if mute == nil {
		return false
	}

	if err := h.client.Delete(ctx, ev); err != nil {
		log.Printf("Failed to delete muted message in %s: %v", ev.ConversationID, err)
	}

	now := time.Now()
	if mute.LastNotifiedAt == nil || now.Sub(*mute.LastNotifiedAt) > h.cfg.Moderation.MuteNotifyInterval {
		durationText := "until further notice"
		if remaining := mute.Remaining(now); remaining != nil {
			durationText = "another " + formatRemaining(*remaining)
		}
		reason := mute.Reason
		if reason == "" {
			reason = "No reason provided"
		}
		h.reply(ctx, ev, fmt.Sprintf("This user is muted for %s. Reason: %s", durationText, reason))
		h.moderation.TouchMuteNotification(mute.ID)
	}
	return true
}

// applyGroupFilters runs the anti-link and profanity filters. Admins and
// owners are exempt.
func (h *MessageHandler) applyGroupFilters(ctx context.Context, ev *platform.Event) {
	conv := h.conversations.Get(ev.ConversationID)
	if conv == nil {
		return
	}

	if h.dispatcher.IsOwner(ev.ActorID) {
		return
	}
	if admin, err := h.dispatcher.IsConversationAdmin(ctx, ev); err != nil {
		log.Printf("Failed to check admin status for %s: %v", ev.ActorID, err)
	} else if admin {
		return
	}

	if h.LinkDetector != nil && conv.AntiLink &&
		h.settings.Feature("antiLink", h.cfg.Features.AntiLink) && h.LinkDetector(ev.Text) {
		log.Printf("Link detected in %s from %s", ev.ConversationID, ev.ActorID)
		if err := h.client.Delete(ctx, ev); err != nil {
			log.Printf("Failed to delete message with link: %v", err)
		}
		h.reply(ctx, ev, "Links are not allowed in this group!")
		h.moderation.AddWarning(ev.ActorID, ev.ConversationID, "Sent disallowed link", repository.SystemActor)
		return
	}

	if h.ProfanityDetector != nil && conv.ProfanityFilter &&
		h.settings.Feature("profanityFilter", h.cfg.Features.ProfanityFilter) && h.ProfanityDetector(ev.Text) {
		log.Printf("Profanity detected in %s from %s", ev.ConversationID, ev.ActorID)
		if err := h.client.Delete(ctx, ev); err != nil {
			log.Printf("Failed to delete message with profanity: %v", err)
		}
		h.reply(ctx, ev, "Please maintain respectful language in this group!")
		h.moderation.AddWarning(ev.ActorID, ev.ConversationID, "Used profanity", repository.SystemActor)
	}
}

func (h *MessageHandler) reply(ctx context.Context, ev *platform.Event, text string) {
	if err := h.client.Reply(ctx, ev, text); err != nil {
		log.Printf("Failed to reply in %s: %v", ev.ConversationID, err)
	}
}

func formatRemaining(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) - h*60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
