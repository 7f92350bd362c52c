package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/platform"
)

// resolveTarget picks the command's target actor: first mention wins, then
// the author of a quoted message, then a bare phone number argument.
func resolveTarget(ev *platform.Event, args []string) string {
	if len(ev.MentionedIDs) > 0 {
		return ev.MentionedIDs[0]
	}
	if ev.Quoted != nil && ev.Quoted.ActorID != "" {
		return ev.Quoted.ActorID
	}
	for _, arg := range args {
		digits := models.NormalizeNumber(arg)
		if len(digits) >= 7 {
			return digits + "@s.whatsapp.net"
		}
	}
	return ""
}

// stripTargetArgs removes mention tokens and the phone-number argument so
// the remainder can serve as a free-text reason.
func stripTargetArgs(args []string) []string {
	out := []string{}
	for _, arg := range args {
		if strings.HasPrefix(arg, "@") {
			continue
		}
		if digits := models.NormalizeNumber(arg); len(digits) >= 7 {
			continue
		}
		out = append(out, arg)
	}
	return out
}

func reasonFrom(args []string) string {
	reason := strings.TrimSpace(strings.Join(stripTargetArgs(args), " "))
	if reason == "" {
		return "No reason provided"
	}
	return reason
}

// parseDuration accepts "perm"/"permanent"/"forever" for a permanent mute,
// a bare number of minutes, or a number with an s/m/h/d suffix. ok is false
// when the token is not a duration at all.
func parseDuration(token string) (d *time.Duration, permanent bool, ok bool) {
	switch strings.ToLower(token) {
	case "perm", "permanent", "forever":
		return nil, true, true
	}

	token = strings.ToLower(token)
	unit := time.Minute
	num := token
	switch {
	case strings.HasSuffix(token, "s"):
		unit, num = time.Second, token[:len(token)-1]
	case strings.HasSuffix(token, "m"):
		unit, num = time.Minute, token[:len(token)-1]
	case strings.HasSuffix(token, "h"):
		unit, num = time.Hour, token[:len(token)-1]
	case strings.HasSuffix(token, "d"):
		unit, num = 24*time.Hour, token[:len(token)-1]
	}

	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return nil, false, false
	}
	dur := time.Duration(n) * unit
	return &dur, false, true
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	}
	days := int(d.Hours()) / 24
	h := int(d.Hours()) - days*24
	if h == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %dh", days, h)
}

// displayTarget renders an actor id as a mention-style handle.
func displayTarget(actorID string) string {
	if digits := models.NormalizeNumber(actorID); digits != "" {
		return "@" + digits
	}
	return actorID
}
