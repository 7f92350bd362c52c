package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wardbot/backend/internal/dispatcher"
	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/platform"
)

var caseIDPattern = regexp.MustCompile(`(?i)^CASE-\d{5,}$`)

func warnCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "warn",
		Description: "Warn a group member",
		Usage:       "warn @user [reason]",
		GroupOnly:   true,
		AdminOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				return d.Client.Reply(ctx, ev, "Mention or reply to the member you want to warn.")
			}

			res := d.Moderation.AddWarning(target, ev.ConversationID, reasonFrom(args), ev.ActorID)
			msg := fmt.Sprintf("%s has been warned (%d warning(s) in this group). Case %s.",
				displayTarget(target), res.TotalWarnings, res.CaseID)
			if res.AutoMute != nil {
				if res.AutoMute.ExpiresAt != nil {
					msg += fmt.Sprintf(" Warning limit reached: auto-muted for %s.",
						formatDuration(res.AutoMute.ExpiresAt.Sub(res.AutoMute.UpdatedAt)))
				} else {
					msg += " Warning limit reached: auto-muted permanently."
				}
			}
			return d.Client.Reply(ctx, ev, msg)
		},
	}
}

func warningsCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "warnings",
		Aliases:     []string{"warns"},
		Description: "Show a member's warnings in this group",
		Usage:       "warnings [@user]",
		GroupOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				target = ev.ActorID
			}

			warnings := d.Moderation.Warnings(target, ev.ConversationID)
			if len(warnings) == 0 {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("%s has no warnings in this group.", displayTarget(target)))
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%s has %d warning(s) in this group:\n", displayTarget(target), len(warnings))
			shown := warnings
			if len(shown) > 5 {
				shown = shown[:5]
			}
			for _, w := range shown {
				fmt.Fprintf(&b, "- [%s] %s\n", w.CaseID, w.Reason)
			}
			return d.Client.Reply(ctx, ev, strings.TrimRight(b.String(), "\n"))
		},
	}
}

func unwarnCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "unwarn",
		Aliases:     []string{"clearwarns", "delwarns"},
		Description: "Clear a member's warnings",
		Usage:       "unwarn @user [--all]",
		GroupOnly:   true,
		AdminOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				return d.Client.Reply(ctx, ev, "Mention or reply to the member whose warnings you want to clear.")
			}

			scope := ev.ConversationID
			for _, arg := range args {
				if arg == "--all" {
					scope = "all"
				}
			}

			res := d.Moderation.ClearWarnings(target, scope)
			if res.Cleared == 0 {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("%s has no warnings to clear.", displayTarget(target)))
			}

			d.Moderation.AddLog(models.ActionUnwarn, map[string]any{
				"actorId":        target,
				"conversationId": ev.ConversationID,
				"scope":          scope,
				"issuedBy":       ev.ActorID,
				"cleared":        res.Cleared,
			})
			where := "in this group"
			if scope == "all" {
				where = "across all groups"
			}
			return d.Client.Reply(ctx, ev, fmt.Sprintf("Cleared %d warning(s) for %s %s.", res.Cleared, displayTarget(target), where))
		},
	}
}

func muteCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "mute",
		Description: "Mute a group member",
		Usage:       "mute @user [30m|2h|perm] [reason]",
		GroupOnly:   true,
		AdminOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				return d.Client.Reply(ctx, ev, "Mention or reply to the member you want to mute.")
			}

			var duration *time.Duration
			reasonArgs := args
			for _, arg := range stripTargetArgs(args) {
				if dur, _, ok := parseDuration(arg); ok {
					duration = dur
					reasonArgs = removeToken(args, arg)
					break
				}
			}

			reason := reasonFrom(reasonArgs)
			mute := d.Moderation.AddMute(target, ev.ConversationID, duration, reason, ev.ActorID, models.MuteManual)

			if mute.ExpiresAt == nil {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("%s has been muted permanently. Case %s.", displayTarget(target), mute.CaseID))
			}
			return d.Client.Reply(ctx, ev, fmt.Sprintf("%s has been muted for %s. Case %s.",
				displayTarget(target), formatDuration(*duration), mute.CaseID))
		},
	}
}

func unmuteCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "unmute",
		Description: "Lift a member's mute",
		Usage:       "unmute @user [reason]",
		GroupOnly:   true,
		AdminOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				return d.Client.Reply(ctx, ev, "Mention or reply to the member you want to unmute.")
			}

			mute := d.Moderation.RemoveMute(target, ev.ConversationID, ev.ActorID, reasonFrom(args))
			if mute == nil {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("%s has no active mute in this group.", displayTarget(target)))
			}
			return d.Client.Reply(ctx, ev, fmt.Sprintf("%s has been unmuted. Case %s.", displayTarget(target), mute.CaseID))
		},
	}
}

func muteInfoCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "muteinfo",
		Aliases:     []string{"mutestatus", "ismuted"},
		Description: "Show a member's mute status",
		Usage:       "muteinfo [@user]",
		GroupOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				target = ev.ActorID
			}

			mute := d.Moderation.ActiveMute(target, ev.ConversationID)
			if mute == nil {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("%s is not muted in this group.", displayTarget(target)))
			}
			if remaining := mute.Remaining(time.Now()); remaining != nil {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("%s is muted for another %s (case %s): %s",
					displayTarget(target), formatDuration(*remaining), mute.CaseID, mute.Reason))
			}
			return d.Client.Reply(ctx, ev, fmt.Sprintf("%s is muted permanently (case %s): %s",
				displayTarget(target), mute.CaseID, mute.Reason))
		},
	}
}

func clearMutesCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "clearmutes",
		Description: "Remove a member's mute history",
		Usage:       "clearmutes @user [--all]",
		GroupOnly:   true,
		AdminOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			target := resolveTarget(ev, args)
			if target == "" {
				return d.Client.Reply(ctx, ev, "Mention or reply to the member whose mutes you want to clear.")
			}

			scope := ev.ConversationID
			for _, arg := range args {
				if arg == "--all" {
					scope = "all"
				}
			}

			res := d.Moderation.ClearMutes(target, scope)
			if res.Cleared == 0 {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("%s has no mutes to clear.", displayTarget(target)))
			}

			d.Moderation.AddLog(models.ActionClearMutes, map[string]any{
				"actorId":        target,
				"conversationId": ev.ConversationID,
				"scope":          scope,
				"issuedBy":       ev.ActorID,
				"cleared":        res.Cleared,
			})
			return d.Client.Reply(ctx, ev, fmt.Sprintf("Cleared %d mute record(s) for %s.", res.Cleared, displayTarget(target)))
		},
	}
}

func clearCommand(d *Deps) *dispatcher.Command {
	return &dispatcher.Command{
		Name:        "clear",
		Aliases:     []string{"delcase"},
		Description: "Delete a moderation case by id",
		Usage:       "clear CASE-00042",
		AdminOnly:   true,
		GroupOnly:   true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			if len(args) == 0 || !caseIDPattern.MatchString(strings.TrimSpace(args[0])) {
				return d.Client.Reply(ctx, ev, "Give me a case id like CASE-00042.")
			}

			rec := d.Moderation.DeleteCase(args[0])
			if rec == nil {
				return d.Client.Reply(ctx, ev, fmt.Sprintf("No case found for %s.", strings.ToUpper(strings.TrimSpace(args[0]))))
			}
			return d.Client.Reply(ctx, ev, fmt.Sprintf("Deleted %s record for case %s.", rec.Type, caseIDOf(rec)))
		},
	}
}

func caseIDOf(rec *models.CaseRecord) string {
	switch rec.Type {
	case models.CaseWarning:
		return rec.Warning.CaseID
	case models.CaseMute:
		return rec.Mute.CaseID
	default:
		return rec.Entry.CaseID
	}
}

func removeToken(args []string, token string) []string {
	out := []string{}
	for _, arg := range args {
		if arg != token {
			out = append(out, arg)
		}
	}
	return out
}
