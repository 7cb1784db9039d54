// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/matrixbot/lib/clock"
	"github.com/bureau-foundation/matrixbot/lib/directory"
	"github.com/bureau-foundation/matrixbot/lib/journal"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/lib/testutil"
	"github.com/bureau-foundation/matrixbot/messaging/messagingtest"
)

const (
	botUser  = "@bot:example.org"
	engRoom  = "!eng:example.org"
	alice    = "@alice:example.org"
	bob      = "@bob:example.org"
	carol    = "@carol:example.org"
	testTick = 10 * time.Second
)

type memoryRecorder struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (r *memoryRecorder) Record(_ context.Context, entry journal.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryRecorder) Entries() []journal.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]journal.Entry(nil), r.entries...)
}

type fixture struct {
	session  *messagingtest.Session
	clock    *clock.FakeClock
	recorder *memoryRecorder
	bot      *Bot
}

func newFixture(t *testing.T, configure ...func(*Config)) *fixture {
	t.Helper()
	session := messagingtest.NewSession(ref.MustParseUserID(botUser))
	fakeClock := clock.Fake(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
	recorder := &memoryRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	config := Config{
		Session: session,
		Name:    "bot",
		Domain:  "example.org",
		Period:  testTick,
		Directory: directory.NewStatic(directory.StaticConfig{
			Groups: map[string][]string{
				"eng": {"alice", "bob"},
				"ops": {"@carol:example.org"},
			},
		}),
		Aliases:  map[string]string{"onboard": "invite +eng"},
		Recorder: recorder,
		Clock:    fakeClock,
		Logger:   logger,
	}
	for _, apply := range configure {
		apply(&config)
	}

	instance, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{session: session, clock: fakeClock, recorder: recorder, bot: instance}
}

// deliver syncs one response containing a text message from sender in
// room and dispatches it.
func (f *fixture) deliver(t *testing.T, room, sender, body string) {
	t.Helper()
	f.session.QueueSync(messagingtest.NewSync("batch-" + body).
		Timeline(room, messagingtest.Text(sender, body)).
		Build())
	if err := f.bot.SyncOnce(context.Background(), false); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
}

func TestNewRequiresSessionAndName(t *testing.T) {
	if _, err := New(Config{Name: "bot"}); err == nil {
		t.Error("New without Session succeeded")
	}
	session := messagingtest.NewSession(ref.MustParseUserID(botUser))
	if _, err := New(Config{Session: session}); err == nil {
		t.Error("New without Name succeeded")
	}
}

func TestNewDefaultsDomainToSessionServer(t *testing.T) {
	f := newFixture(t, func(config *Config) { config.Domain = "" })
	if f.bot.domain != "example.org" {
		t.Errorf("domain = %q, want example.org", f.bot.domain)
	}
}

func TestSyncOnceAdvancesCursor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.session.FailNext("Sync", 1, nil)
	if err := f.bot.SyncOnce(ctx, false); err == nil {
		t.Fatal("SyncOnce succeeded despite scripted failure")
	}
	if f.bot.Cursor() != "" {
		t.Errorf("cursor after failed sync = %q, want empty", f.bot.Cursor())
	}

	f.session.QueueSync(messagingtest.NewSync("s1").Build())
	f.session.QueueSync(messagingtest.NewSync("s2").Build())
	for _, want := range []string{"s1", "s2"} {
		if err := f.bot.SyncOnce(ctx, false); err != nil {
			t.Fatalf("SyncOnce: %v", err)
		}
		if f.bot.Cursor() != want {
			t.Errorf("cursor = %q, want %q", f.bot.Cursor(), want)
		}
	}

	syncs := f.session.CallsTo("Sync")
	since := []string{"", "", "s1"}
	if len(syncs) != len(since) {
		t.Fatalf("got %d sync calls, want %d", len(syncs), len(since))
	}
	for index, call := range syncs {
		if call.Target != since[index] {
			t.Errorf("sync %d since = %q, want %q", index, call.Target, since[index])
		}
	}
}

func TestCursorAdvancesWhenDispatchFails(t *testing.T) {
	f := newFixture(t)
	f.session.FailNext("InviteUser", 3, nil)

	f.session.QueueSync(messagingtest.NewSync("s1").
		Timeline(engRoom, messagingtest.Text(carol, "bot: invite bob")).
		Build())

	done := make(chan error, 1)
	go func() { done <- f.bot.SyncOnce(context.Background(), false) }()
	for range 2 {
		f.clock.WaitForTimers(1)
		f.clock.Advance(5 * time.Second)
	}
	if err := testutil.RequireReceive(t, done, testutil.DefaultTimeout, "waiting for SyncOnce"); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	if got := len(f.session.CallsTo("InviteUser")); got != 3 {
		t.Errorf("InviteUser calls = %d, want 3", got)
	}
	if f.bot.Cursor() != "s1" {
		t.Errorf("cursor = %q", f.bot.Cursor())
	}
	entries := f.recorder.Entries()
	if len(entries) != 1 || entries[0].Performed {
		t.Errorf("journal = %+v, want one unperformed entry", entries)
	}
}

func TestSuppressedSyncIngestsWithoutDispatch(t *testing.T) {
	f := newFixture(t)
	f.session.QueueSync(messagingtest.NewSync("s1").
		Timeline(engRoom, messagingtest.Text(carol, "bot: invite bob")).
		Build())
	if err := f.bot.SyncOnce(context.Background(), true); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if calls := f.session.CallsTo("InviteUser"); len(calls) != 0 {
		t.Errorf("suppressed sync dispatched: %+v", calls)
	}
	if rooms := f.bot.Rooms().Rooms(); len(rooms) != 1 {
		t.Errorf("directory has %d rooms, want 1", len(rooms))
	}
}

func TestRunSkipsBacklogThenDispatches(t *testing.T) {
	tickCounter := &countingPlugin{}
	f := newFixture(t, func(config *Config) {
		config.SkipBacklog = true
		config.Scheduler = plugin.NewScheduler(config.Logger, tickCounter)
	})
	f.session.QueueSync(messagingtest.NewSync("s1").
		Timeline(engRoom, messagingtest.Text(carol, "bot: invite alice")).
		Build())
	f.session.QueueSync(messagingtest.NewSync("s2").
		Timeline(engRoom, messagingtest.Text(carol, "bot: invite bob")).
		Build())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	f.clock.WaitForTimers(1)
	if calls := f.session.CallsTo("InviteUser"); len(calls) != 0 {
		t.Fatalf("backlog dispatched: %+v", calls)
	}
	f.clock.Advance(testTick)
	f.clock.WaitForTimers(1)
	cancel()
	if err := testutil.RequireReceive(t, done, testutil.DefaultTimeout, "waiting for Run"); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	calls := f.session.CallsTo("InviteUser")
	if len(calls) != 1 || calls[0].UserID.String() != bob {
		t.Errorf("InviteUser calls = %+v, want one for bob", calls)
	}
	if f.bot.Cursor() != "s2" {
		t.Errorf("cursor = %q, want s2", f.bot.Cursor())
	}
	if got := tickCounter.Ticks(); got != 2 {
		t.Errorf("plugin ticked %d times, want 2", got)
	}
}

func TestRunKeepsGoingAfterSyncFailure(t *testing.T) {
	f := newFixture(t)
	f.session.FailNext("Sync", 1, nil)
	f.session.QueueSync(messagingtest.NewSync("s1").Build())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	f.clock.WaitForTimers(1)
	f.clock.Advance(testTick)
	f.clock.WaitForTimers(1)
	cancel()
	if err := testutil.RequireReceive(t, done, testutil.DefaultTimeout, "waiting for Run"); err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if f.bot.Cursor() != "s1" {
		t.Errorf("cursor = %q, want s1", f.bot.Cursor())
	}
}

func TestJoinConfiguredRooms(t *testing.T) {
	f := newFixture(t, func(config *Config) {
		config.Rooms = []string{"#general:example.org", "#missing:example.org", engRoom}
	})
	f.session.SetJoinTarget("#general:example.org", ref.MustParseRoomID("!general:example.org"))

	f.bot.JoinConfiguredRooms(context.Background())

	if got := len(f.session.CallsTo("JoinRoom")); got != 3 {
		t.Errorf("JoinRoom calls = %d, want 3 (one attempt each)", got)
	}
	roomID, ok := f.bot.ResolveRoom(context.Background(), "#general:example.org")
	if !ok || roomID.String() != "!general:example.org" {
		t.Errorf("ResolveRoom = %v, %v", roomID, ok)
	}
	if got := len(f.session.CallsTo("JoinRoom")); got != 3 {
		t.Errorf("ResolveRoom re-joined a configured room: %d joins", got)
	}
}

type countingPlugin struct {
	mu    sync.Mutex
	ticks int
}

func (p *countingPlugin) Name() string { return "counter" }

func (p *countingPlugin) Tick(context.Context, plugin.Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks++
	return nil
}

func (p *countingPlugin) HandleCommand(context.Context, plugin.Handler, plugin.Message) (bool, error) {
	return false, nil
}

func (p *countingPlugin) Help() string { return "" }

func (p *countingPlugin) Ticks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}
