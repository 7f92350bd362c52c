package commands

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wardbot/backend/config"
	"github.com/wardbot/backend/internal/database"
	"github.com/wardbot/backend/internal/dispatcher"
	"github.com/wardbot/backend/internal/guard"
	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/platform"
	"github.com/wardbot/backend/internal/repository"
)

const (
	adminActor  = "900@s.whatsapp.net"
	targetActor = "111@s.whatsapp.net"
	testGroup   = "999@g.us"
)

type fakeClient struct {
	replies []string
}

func (f *fakeClient) Reply(ctx context.Context, ev *platform.Event, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeClient) Send(ctx context.Context, conversationID, text string) error { return nil }

func (f *fakeClient) Roster(ctx context.Context, conversationID string) ([]platform.Participant, error) {
	return nil, nil
}

func (f *fakeClient) ResolveContact(ctx context.Context, actorID string) (*platform.Contact, error) {
	return &platform.Contact{ID: actorID}, nil
}

func (f *fakeClient) Delete(ctx context.Context, ev *platform.Event) error { return nil }

func (f *fakeClient) last() string {
	if len(f.replies) == 0 {
		return ""
	}
	return f.replies[len(f.replies)-1]
}

func newDeps(t *testing.T) (*Deps, *fakeClient) {
	t.Helper()

	db := database.Open(filepath.Join(t.TempDir(), "wardbot.json"))
	if err := db.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := &config.Config{}
	cfg.Bot.Name = "WardBot"
	cfg.Bot.Prefix = "/"

	client := &fakeClient{}
	deps := &Deps{
		Cfg:        cfg,
		Client:     client,
		Actors:     repository.NewActorRepository(db),
		Moderation: repository.NewModerationRepository(db, 10, 30*time.Minute),
		Guard:      guard.NewCooldownManager(3 * time.Second),
		Registry:   dispatcher.NewRegistry(),
	}
	for _, cmd := range All(deps) {
		deps.Registry.Register(cmd)
	}
	return deps, client
}

func adminEvent(text string, mentions ...string) *platform.Event {
	return &platform.Event{
		ConversationID: testGroup,
		ActorID:        adminActor,
		Text:           text,
		MentionedIDs:   mentions,
	}
}

func run(t *testing.T, deps *Deps, name string, ev *platform.Event, args ...string) {
	t.Helper()
	cmd := deps.Registry.Resolve(name)
	if cmd == nil {
		t.Fatalf("command %q not registered", name)
	}
	if err := cmd.Execute(context.Background(), ev, args); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
}

func TestWarnCommand(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "warn", adminEvent("/warn @111 spamming", targetActor), "@111", "spamming")

	if !strings.Contains(client.last(), "CASE-00001") {
		t.Fatalf("reply = %q", client.last())
	}
	warnings := deps.Moderation.Warnings(targetActor, testGroup)
	if len(warnings) != 1 || warnings[0].Reason != "spamming" {
		t.Fatalf("warnings = %+v", warnings)
	}
	if warnings[0].IssuedBy != adminActor {
		t.Fatalf("issuedBy = %q", warnings[0].IssuedBy)
	}
}

func TestWarnCommandRequiresTarget(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "warn", adminEvent("/warn"))

	if !strings.Contains(client.last(), "Mention or reply") {
		t.Fatalf("reply = %q", client.last())
	}
	if len(deps.Moderation.Warnings(targetActor, testGroup)) != 0 {
		t.Fatal("no warning should be issued without a target")
	}
}

func TestWarnCommandTargetFromQuote(t *testing.T) {
	deps, _ := newDeps(t)

	ev := adminEvent("/warn rude")
	ev.Quoted = &platform.QuotedMessage{ActorID: targetActor, Text: "something rude"}
	run(t, deps, "warn", ev, "rude")

	if len(deps.Moderation.Warnings(targetActor, testGroup)) != 1 {
		t.Fatal("quoted author should be the warning target")
	}
}

func TestMuteCommandWithDuration(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "mute", adminEvent("/mute @111 30m flooding", targetActor), "@111", "30m", "flooding")

	mute := deps.Moderation.ActiveMute(targetActor, testGroup)
	if mute == nil || mute.ExpiresAt == nil {
		t.Fatalf("mute = %+v", mute)
	}
	if mute.Reason != "flooding" || mute.Kind != models.MuteManual {
		t.Fatalf("mute = %+v", mute)
	}
	if !strings.Contains(client.last(), "30m") {
		t.Fatalf("reply = %q", client.last())
	}
}

func TestMuteCommandPermanent(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "mute", adminEvent("/mute @111 perm", targetActor), "@111", "perm")

	mute := deps.Moderation.ActiveMute(targetActor, testGroup)
	if mute == nil || mute.ExpiresAt != nil {
		t.Fatalf("mute = %+v", mute)
	}
	if !strings.Contains(client.last(), "permanently") {
		t.Fatalf("reply = %q", client.last())
	}
}

func TestUnmuteCommand(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "unmute", adminEvent("/unmute @111", targetActor), "@111")
	if !strings.Contains(client.last(), "no active mute") {
		t.Fatalf("reply = %q", client.last())
	}

	deps.Moderation.AddMute(targetActor, testGroup, nil, "x", adminActor, models.MuteManual)
	run(t, deps, "unmute", adminEvent("/unmute @111", targetActor), "@111")
	if deps.Moderation.ActiveMute(targetActor, testGroup) != nil {
		t.Fatal("mute should be lifted")
	}
}

func TestUnwarnCommandScopes(t *testing.T) {
	deps, client := newDeps(t)

	deps.Moderation.AddWarning(targetActor, testGroup, "a", adminActor)
	deps.Moderation.AddWarning(targetActor, "888@g.us", "b", adminActor)

	run(t, deps, "unwarn", adminEvent("/unwarn @111", targetActor), "@111")
	if !strings.Contains(client.last(), "Cleared 1 warning(s)") {
		t.Fatalf("reply = %q", client.last())
	}

	run(t, deps, "unwarn", adminEvent("/unwarn @111 --all", targetActor), "@111", "--all")
	if got := deps.Moderation.WarningCount(targetActor, ""); got != 0 {
		t.Fatalf("remaining warnings = %d", got)
	}
}

func TestClearCommandValidatesCaseID(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "clear", adminEvent("/clear bogus"), "bogus")
	if !strings.Contains(client.last(), "CASE-") {
		t.Fatalf("reply = %q", client.last())
	}

	res := deps.Moderation.AddWarning(targetActor, testGroup, "a", adminActor)
	run(t, deps, "clear", adminEvent("/clear "+res.CaseID), res.CaseID)
	if deps.Moderation.GetCase(res.CaseID) != nil {
		t.Fatal("case should be deleted")
	}

	// Lowercase case ids are accepted.
	res2 := deps.Moderation.AddWarning(targetActor, testGroup, "b", adminActor)
	run(t, deps, "clear", adminEvent("/clear x"), strings.ToLower(res2.CaseID))
	if deps.Moderation.GetCase(res2.CaseID) != nil {
		t.Fatal("lowercase case id should resolve")
	}
}

func TestMuteInfoCommand(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "muteinfo", adminEvent("/muteinfo @111", targetActor), "@111")
	if !strings.Contains(client.last(), "not muted") {
		t.Fatalf("reply = %q", client.last())
	}

	deps.Moderation.AddMute(targetActor, testGroup, nil, "x", adminActor, models.MuteManual)
	run(t, deps, "muteinfo", adminEvent("/muteinfo @111", targetActor), "@111")
	if !strings.Contains(client.last(), "permanently") {
		t.Fatalf("reply = %q", client.last())
	}
}

func TestBlockCommands(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "block", adminEvent("/block @111", targetActor), "@111")
	if !strings.Contains(client.last(), "not seen") {
		t.Fatalf("reply = %q", client.last())
	}

	deps.Actors.Upsert(targetActor, "Target", "111")
	run(t, deps, "block", adminEvent("/block @111", targetActor), "@111")
	if !deps.Actors.IsBlocked(targetActor) {
		t.Fatal("target should be blocked")
	}

	run(t, deps, "unblock", adminEvent("/unblock @111", targetActor), "@111")
	if deps.Actors.IsBlocked(targetActor) {
		t.Fatal("target should be unblocked")
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		perm bool
		ok   bool
	}{
		{"30m", 30 * time.Minute, false, true},
		{"2h", 2 * time.Hour, false, true},
		{"45s", 45 * time.Second, false, true},
		{"1d", 24 * time.Hour, false, true},
		{"15", 15 * time.Minute, false, true},
		{"perm", 0, true, true},
		{"forever", 0, true, true},
		{"soon", 0, false, false},
	}

	for _, c := range cases {
		d, perm, ok := parseDuration(c.in)
		if ok != c.ok || perm != c.perm {
			t.Fatalf("parseDuration(%q) = (%v, %v, %v)", c.in, d, perm, ok)
		}
		if ok && !perm && *d != c.want {
			t.Fatalf("parseDuration(%q) = %v, want %v", c.in, *d, c.want)
		}
	}
}

func TestHelpListsCommands(t *testing.T) {
	deps, client := newDeps(t)

	run(t, deps, "help", adminEvent("/help"))
	if !strings.Contains(client.last(), "/warn") || !strings.Contains(client.last(), "WardBot") {
		t.Fatalf("help = %q", client.last())
	}
}
