// Package dispatcher routes prefixed messages to registered commands and
// enforces the gate chain that precedes execution: command toggles, actor
// blocks, owner/group/admin restrictions and per-actor cooldowns.
package dispatcher

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/wardbot/backend/config"
	"github.com/wardbot/backend/internal/guard"
	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/platform"
	"github.com/wardbot/backend/internal/repository"
)

type Dispatcher struct {
	cfg      *config.Config
	client   platform.Client
	registry *Registry
	guard    *guard.CooldownManager
	actors   *repository.ActorRepository
	settings *repository.SettingsRepository
	stats    *repository.CommandStatsRepository
}

func New(cfg *config.Config, client platform.Client, registry *Registry, g *guard.CooldownManager, actors *repository.ActorRepository, settings *repository.SettingsRepository, stats *repository.CommandStatsRepository) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		client:   client,
		registry: registry,
		guard:    g,
		actors:   actors,
		settings: settings,
		stats:    stats,
	}
}

// Registry exposes the command registry, used by the help command and the
// admin API.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch parses a prefixed message and runs the matching command through
// the gate chain. It reports whether the message was handled as a command;
// an unknown token is not handled and produces no reply.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *platform.Event) bool {
	body := strings.TrimSpace(strings.TrimPrefix(ev.Text, d.cfg.Bot.Prefix))
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return false
	}
	token, args := fields[0], fields[1:]

	cmd := d.registry.Resolve(token)
	if cmd == nil {
		return false
	}

	if !d.settings.CommandEnabled(cmd.Name) {
		d.reply(ctx, ev, fmt.Sprintf("The %s command is currently disabled.", cmd.Name))
		return true
	}

	if d.actors.IsBlocked(ev.ActorID) {
		return true
	}

	if cmd.OwnerOnly && !d.isOwner(ev.ActorID) {
		d.reply(ctx, ev, "This command is restricted to the bot owner.")
		return true
	}

	if cmd.GroupOnly && !ev.IsGroup() {
		d.reply(ctx, ev, "This command only works in group chats.")
		return true
	}

	if cmd.AdminOnly && !d.isOwner(ev.ActorID) {
		admin, err := d.isConversationAdmin(ctx, ev)
		if err != nil {
			log.Printf("Failed to check admin status for %s: %v", ev.ActorID, err)
		}
		if !admin {
			d.reply(ctx, ev, "This command requires group admin rights.")
			return true
		}
	}

	if d.guard.IsOnCooldown(ev.ActorID, cmd.Name) {
		remaining := d.guard.RemainingTime(ev.ActorID, cmd.Name)
		secs := int(math.Ceil(remaining.Seconds()))
		d.reply(ctx, ev, fmt.Sprintf("Please wait %ds before using %s again.", secs, cmd.Name))
		return true
	}

	d.stats.Log(cmd.Name, ev.ActorID, ev.ConversationID)

	if err := cmd.Execute(ctx, ev, args); err != nil {
		log.Printf("Command %s failed: %v", cmd.Name, err)
		d.reply(ctx, ev, "Something went wrong running that command.")
	}

	d.guard.SetCooldown(ev.ActorID, cmd.Name, cmd.Cooldown)
	return true
}

// IsOwner reports whether the actor id belongs to a configured owner
// number, compared digit-wise.
func (d *Dispatcher) IsOwner(actorID string) bool {
	return d.isOwner(actorID)
}

func (d *Dispatcher) isOwner(actorID string) bool {
	digits := models.NormalizeNumber(actorID)
	if digits == "" {
		return false
	}
	for _, owner := range d.cfg.Bot.OwnerNumbers {
		if models.NormalizeNumber(owner) == digits {
			return true
		}
	}
	return false
}

// IsConversationAdmin resolves the actor against the group roster under
// both of its identity forms.
func (d *Dispatcher) IsConversationAdmin(ctx context.Context, ev *platform.Event) (bool, error) {
	return d.isConversationAdmin(ctx, ev)
}

func (d *Dispatcher) isConversationAdmin(ctx context.Context, ev *platform.Event) (bool, error) {
	roster, err := d.client.Roster(ctx, ev.ConversationID)
	if err != nil {
		return false, fmt.Errorf("load roster: %w", err)
	}

	phone := ""
	if contact, err := d.client.ResolveContact(ctx, ev.ActorID); err == nil && contact != nil {
		phone = contact.Phone
	}
	identity := models.NewIdentity(ev.ActorID, phone)

	for _, p := range roster {
		if (p.IsAdmin || p.IsSuperAdmin) && identity.Matches(p.ID) {
			return true, nil
		}
	}
	return false, nil
}

func (d *Dispatcher) reply(ctx context.Context, ev *platform.Event, text string) {
	if err := d.client.Reply(ctx, ev, text); err != nil {
		log.Printf("Failed to reply in %s: %v", ev.ConversationID, err)
	}
}
