package dispatcher

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wardbot/backend/config"
	"github.com/wardbot/backend/internal/database"
	"github.com/wardbot/backend/internal/guard"
	"github.com/wardbot/backend/internal/platform"
	"github.com/wardbot/backend/internal/repository"
)

type fakeClient struct {
	replies  []string
	roster   []platform.Participant
	contacts map[string]*platform.Contact
}

func (f *fakeClient) Reply(ctx context.Context, ev *platform.Event, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeClient) Send(ctx context.Context, conversationID, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeClient) Roster(ctx context.Context, conversationID string) ([]platform.Participant, error) {
	return f.roster, nil
}

func (f *fakeClient) ResolveContact(ctx context.Context, actorID string) (*platform.Contact, error) {
	if c, ok := f.contacts[actorID]; ok {
		return c, nil
	}
	return &platform.Contact{ID: actorID}, nil
}

func (f *fakeClient) Delete(ctx context.Context, ev *platform.Event) error { return nil }

type fixture struct {
	dispatcher *Dispatcher
	client     *fakeClient
	actors     *repository.ActorRepository
	settings   *repository.SettingsRepository
	registry   *Registry
	executed   *int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := database.Open(filepath.Join(t.TempDir(), "wardbot.json"))
	if err := db.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := &config.Config{}
	cfg.Bot.Prefix = "/"
	cfg.Bot.OwnerNumbers = []string{"490001"}
	cfg.Moderation.DefaultCooldown = 3 * time.Second

	client := &fakeClient{contacts: map[string]*platform.Contact{}}
	actors := repository.NewActorRepository(db)
	settings := repository.NewSettingsRepository(db)
	stats := repository.NewCommandStatsRepository(db)
	registry := NewRegistry()
	cooldowns := guard.NewCooldownManager(cfg.Moderation.DefaultCooldown)

	executed := 0
	registry.Register(&Command{
		Name:    "ping",
		Aliases: []string{"p"},
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			executed++
			return nil
		},
	})

	return &fixture{
		dispatcher: New(cfg, client, registry, cooldowns, actors, settings, stats),
		client:     client,
		actors:     actors,
		settings:   settings,
		registry:   registry,
		executed:   &executed,
	}
}

func event(text string) *platform.Event {
	return &platform.Event{
		ConversationID: "999@g.us",
		ActorID:        "111@s.whatsapp.net",
		Text:           text,
	}
}

func TestDispatchUnknownCommandIsSilent(t *testing.T) {
	f := newFixture(t)

	if f.dispatcher.Dispatch(context.Background(), event("/nosuch")) {
		t.Fatal("unknown command should not be handled")
	}
	if len(f.client.replies) != 0 {
		t.Fatalf("unexpected replies: %v", f.client.replies)
	}
}

func TestDispatchExecutesAndSetsCooldown(t *testing.T) {
	f := newFixture(t)

	if !f.dispatcher.Dispatch(context.Background(), event("/ping")) {
		t.Fatal("expected command to be handled")
	}
	if *f.executed != 1 {
		t.Fatalf("executed = %d, want 1", *f.executed)
	}

	// Immediate second call is on cooldown and does not execute.
	if !f.dispatcher.Dispatch(context.Background(), event("/ping")) {
		t.Fatal("cooldown rejection still counts as handled")
	}
	if *f.executed != 1 {
		t.Fatalf("executed = %d, want 1", *f.executed)
	}
	last := f.client.replies[len(f.client.replies)-1]
	if !strings.Contains(last, "wait") {
		t.Fatalf("expected cooldown reply, got %q", last)
	}
}

func TestDispatchAliasResolves(t *testing.T) {
	f := newFixture(t)

	if !f.dispatcher.Dispatch(context.Background(), event("/P")) {
		t.Fatal("alias lookup should be case-insensitive")
	}
	if *f.executed != 1 {
		t.Fatalf("executed = %d, want 1", *f.executed)
	}
}

func TestDispatchDisabledCommand(t *testing.T) {
	f := newFixture(t)

	f.settings.SetCommandEnabled("ping", false)

	if !f.dispatcher.Dispatch(context.Background(), event("/ping")) {
		t.Fatal("disabled command is still handled")
	}
	if *f.executed != 0 {
		t.Fatal("disabled command must not execute")
	}
	if len(f.client.replies) != 1 || !strings.Contains(f.client.replies[0], "disabled") {
		t.Fatalf("replies = %v", f.client.replies)
	}
}

func TestDispatchBlockedActorIsSilentlyDropped(t *testing.T) {
	f := newFixture(t)

	f.actors.Upsert("111@s.whatsapp.net", "Blocked", "111")
	f.actors.SetBlocked("111@s.whatsapp.net", true)

	if !f.dispatcher.Dispatch(context.Background(), event("/ping")) {
		t.Fatal("blocked actor's command is swallowed, not unhandled")
	}
	if *f.executed != 0 || len(f.client.replies) != 0 {
		t.Fatal("blocked actor must get no execution and no reply")
	}
}

func TestDispatchOwnerOnly(t *testing.T) {
	f := newFixture(t)

	f.registry.Register(&Command{
		Name:      "shutdown",
		OwnerOnly: true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			*f.executed += 100
			return nil
		},
	})

	if !f.dispatcher.Dispatch(context.Background(), event("/shutdown")) {
		t.Fatal("expected handled")
	}
	if *f.executed != 0 {
		t.Fatal("non-owner must not run owner commands")
	}

	owner := event("/shutdown")
	owner.ActorID = "490001@s.whatsapp.net"
	f.dispatcher.Dispatch(context.Background(), owner)
	if *f.executed != 100 {
		t.Fatal("owner should run owner commands")
	}
}

func TestDispatchGroupOnlyInDirectChat(t *testing.T) {
	f := newFixture(t)

	f.registry.Register(&Command{
		Name:      "warn",
		GroupOnly: true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			*f.executed += 100
			return nil
		},
	})

	direct := event("/warn")
	direct.ConversationID = "111@s.whatsapp.net"
	f.dispatcher.Dispatch(context.Background(), direct)
	if *f.executed != 0 {
		t.Fatal("group-only command must not run in a direct chat")
	}
}

func TestDispatchAdminOnlyIdentityReconciliation(t *testing.T) {
	f := newFixture(t)

	f.registry.Register(&Command{
		Name:      "mute",
		GroupOnly: true,
		AdminOnly: true,
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			*f.executed += 100
			return nil
		},
	})

	// The event carries a device-scoped id; the roster lists the phone form.
	ev := event("/mute")
	ev.ActorID = "111222333:12@s.whatsapp.net"
	f.client.contacts[ev.ActorID] = &platform.Contact{ID: ev.ActorID, Phone: "111222333"}
	f.client.roster = []platform.Participant{
		{ID: "111222333@s.whatsapp.net", IsAdmin: true},
		{ID: "444@s.whatsapp.net"},
	}

	f.dispatcher.Dispatch(context.Background(), ev)
	if *f.executed != 100 {
		t.Fatal("admin under an alternate identity form should pass the gate")
	}

	// A non-admin roster entry fails the gate.
	*f.executed = 0
	ev2 := event("/mute")
	ev2.ActorID = "444@s.whatsapp.net"
	f.dispatcher.Dispatch(context.Background(), ev2)
	if *f.executed != 0 {
		t.Fatal("non-admin must not pass the admin gate")
	}
}
