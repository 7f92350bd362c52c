package events

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
	testActor = "111@s.whatsapp.net"
	testGroup = "999@g.us"
)

type fakeClient struct {
	replies []string
	sent    []string
	deleted int
	roster  []platform.Participant
}

func (f *fakeClient) Reply(ctx context.Context, ev *platform.Event, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeClient) Send(ctx context.Context, conversationID, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeClient) Roster(ctx context.Context, conversationID string) ([]platform.Participant, error) {
	return f.roster, nil
}

func (f *fakeClient) ResolveContact(ctx context.Context, actorID string) (*platform.Contact, error) {
	return &platform.Contact{ID: actorID, DisplayName: "Someone", Phone: models.NormalizeNumber(actorID)}, nil
}

func (f *fakeClient) Delete(ctx context.Context, ev *platform.Event) error {
	f.deleted++
	return nil
}

type fixture struct {
	handler    *MessageHandler
	client     *fakeClient
	actors     *repository.ActorRepository
	convs      *repository.ConversationRepository
	moderation *repository.ModerationRepository
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
	cfg.Moderation.DefaultCooldown = 3 * time.Second
	cfg.Moderation.WarnEscalationThreshold = 10
	cfg.Moderation.AutoMuteDuration = 30 * time.Minute
	cfg.Moderation.MaxMessagesPerMinute = 3
	cfg.Moderation.MuteNotifyInterval = time.Minute

	client := &fakeClient{}
	actors := repository.NewActorRepository(db)
	convs := repository.NewConversationRepository(db)
	settings := repository.NewSettingsRepository(db)
	moderation := repository.NewModerationRepository(db, cfg.Moderation.WarnEscalationThreshold, cfg.Moderation.AutoMuteDuration)
	stats := repository.NewCommandStatsRepository(db)
	cooldowns := guard.NewCooldownManager(cfg.Moderation.DefaultCooldown)

	registry := dispatcher.NewRegistry()
	executed := 0
	registry.Register(&dispatcher.Command{
		Name: "ping",
		Execute: func(ctx context.Context, ev *platform.Event, args []string) error {
			executed++
			return nil
		},
	})
	disp := dispatcher.New(cfg, client, registry, cooldowns, actors, settings, stats)

	handler := NewMessageHandler(cfg, client, actors, convs, settings, moderation, cooldowns, disp)
	return &fixture{
		handler:    handler,
		client:     client,
		actors:     actors,
		convs:      convs,
		moderation: moderation,
		executed:   &executed,
	}
}

func groupMessage(text string) *platform.Event {
	return &platform.Event{
		ConversationID: testGroup,
		ActorID:        testActor,
		MessageID:      "msg-1",
		Text:           text,
	}
}

func TestHandleTracksActorAndConversation(t *testing.T) {
	f := newFixture(t)

	f.handler.Handle(context.Background(), groupMessage("hello"))

	actor := f.actors.Get(testActor)
	if actor == nil || actor.MessageCount != 1 {
		t.Fatalf("actor = %+v", actor)
	}
	if f.convs.Get(testGroup) == nil {
		t.Fatal("conversation should be registered")
	}
}

func TestHandleDropsBlockedActor(t *testing.T) {
	f := newFixture(t)

	f.actors.Upsert(testActor, "Someone", "111")
	f.actors.SetBlocked(testActor, true)

	f.handler.Handle(context.Background(), groupMessage("/ping"))

	if *f.executed != 0 || len(f.client.replies) != 0 {
		t.Fatal("blocked actors get neither execution nor replies")
	}
}

func TestHandleDispatchesCommands(t *testing.T) {
	f := newFixture(t)

	f.handler.Handle(context.Background(), groupMessage("/ping"))
	if *f.executed != 1 {
		t.Fatalf("executed = %d, want 1", *f.executed)
	}
}

func TestHandleAntiSpam(t *testing.T) {
	f := newFixture(t)
	f.handler.cfg.Features.AntiSpam = true

	for i := 0; i < 4; i++ {
		f.handler.Handle(context.Background(), groupMessage("flood"))
	}

	if len(f.client.replies) == 0 || !strings.Contains(f.client.replies[0], "slow down") {
		t.Fatalf("expected slow-down reply, got %v", f.client.replies)
	}
}

func TestHandleMuteEnforcement(t *testing.T) {
	f := newFixture(t)

	f.moderation.AddMute(testActor, testGroup, nil, "being rude", "admin", models.MuteManual)

	f.handler.Handle(context.Background(), groupMessage("let me speak"))
	f.handler.Handle(context.Background(), groupMessage("/ping"))

	if f.client.deleted != 2 {
		t.Fatalf("deleted = %d, want 2", f.client.deleted)
	}
	if *f.executed != 0 {
		t.Fatal("muted actors must not reach the dispatcher")
	}

	// The notice is throttled: two messages inside the interval, one reply.
	notices := 0
	for _, r := range f.client.replies {
		if strings.Contains(r, "muted") {
			notices++
		}
	}
	if notices != 1 {
		t.Fatalf("mute notices = %d, want 1", notices)
	}
}

func TestHandleAntiLinkFilter(t *testing.T) {
	f := newFixture(t)
	f.handler.cfg.Features.AntiLink = true
	f.handler.LinkDetector = func(text string) bool {
		return strings.Contains(text, "http")
	}

	f.convs.Upsert(testGroup, "Group", "")
	f.convs.UpdateFlags(testGroup, models.ConversationFlags{AntiLink: true})

	f.handler.Handle(context.Background(), groupMessage("check http://spam.example"))

	if f.client.deleted != 1 {
		t.Fatalf("deleted = %d, want 1", f.client.deleted)
	}
	warnings := f.moderation.Warnings(testActor, testGroup)
	if len(warnings) != 1 || warnings[0].IssuedBy != repository.SystemActor {
		t.Fatalf("warnings = %+v", warnings)
	}
}

func TestHandleFilterSkipsAdmins(t *testing.T) {
	f := newFixture(t)
	f.handler.cfg.Features.AntiLink = true
	f.handler.LinkDetector = func(text string) bool { return true }
	f.client.roster = []platform.Participant{{ID: testActor, IsAdmin: true}}

	f.convs.Upsert(testGroup, "Group", "")
	f.convs.UpdateFlags(testGroup, models.ConversationFlags{AntiLink: true})

	f.handler.Handle(context.Background(), groupMessage("http://fine.example"))

	if f.client.deleted != 0 {
		t.Fatal("admin messages must not be filtered")
	}
	if len(f.moderation.Warnings(testActor, testGroup)) != 0 {
		t.Fatal("admins must not collect filter warnings")
	}
}

func TestHandleJoinAndLeave(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleJoin(context.Background(), testGroup, testActor)
	if len(f.client.sent) != 1 || !strings.Contains(f.client.sent[0], "@111") {
		t.Fatalf("welcome = %v", f.client.sent)
	}

	f.convs.SetGoodbyeMessage(testGroup, "So long, {user}!")
	f.handler.HandleLeave(context.Background(), testGroup, testActor)
	if got := f.client.sent[len(f.client.sent)-1]; got != "So long, @111!" {
		t.Fatalf("goodbye = %q", got)
	}

	// Disabled flags suppress both.
	f.convs.UpdateFlags(testGroup, models.ConversationFlags{})
	before := len(f.client.sent)
	f.handler.HandleJoin(context.Background(), testGroup, testActor)
	f.handler.HandleLeave(context.Background(), testGroup, testActor)
	if len(f.client.sent) != before {
		t.Fatal("disabled welcome/goodbye must not send")
	}
}
