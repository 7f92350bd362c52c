package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/wardbot/backend/internal/dispatcher"
	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/platform"
)

func pingCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "ping",
		Description: "Check that the bot is alive",
		Usage:       "ping",
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			return d.Client.Reply(ctx, ev, "Pong!")
		},
	}
}

func helpCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "help",
		Aliases:     []string{"commands"},
		Description: "List available commands",
		Usage:       "help",
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			var b strings.Builder
			fmt.Fprintf(&b, "%s commands:\n", d.Cfg.Bot.Name)
			for _, cmd := range d.Registry.All() {
				fmt.Fprintf(&b, "%s%s - %s\n", d.Cfg.Bot.Prefix, cmd.Name, cmd.Description)
			}
			return d.Client.Reply(ctx, ev, strings.TrimRight(b.String(), "\n"))
		},
	}
}

func blockCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "block",
		Description: "Stop processing a user's commands",
		Usage:       "block @user",
		OwnerOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				return d.Client.Reply(ctx, ev, "Mention or reply to the user you want to block.")
			}
			if !d.Actors.SetBlocked(target, true) {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("I have not seen %s yet.", displayTarget(target)))
			}
			d.Moderation.AddLog(models.ActionBlock, map[string]any{
				"actorId":  target,
				"issuedBy": ev.ActorID,
			})
			return d.Client.Reply(ctx, ev, fmt.Sprintf("%s is now blocked.", displayTarget(target)))
		},
	}
}

func unblockCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "unblock",
		Description: "Resume processing a user's commands",
		Usage:       "unblock @user",
		OwnerOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				return d.Client.Reply(ctx, ev, "Mention or reply to the user you want to unblock.")
			}
			if !d.Actors.SetBlocked(target, false) {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("I have not seen %s yet.", displayTarget(target)))
			}
			d.Moderation.AddLog(models.ActionUnblock, map[string]any{
				"actorId":  target,
				"issuedBy": ev.ActorID,
			})
			return d.Client.Reply(ctx, ev, fmt.Sprintf("%s is now unblocked.", displayTarget(target)))
		},
	}
}
