// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/matrixbot/lib/clock"
	"github.com/bureau-foundation/matrixbot/lib/invoke"
	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/messaging/messagingtest"
)

var (
	bot = ref.MustParseUserID("@bender:dom")
	fry = ref.MustParseUserID("@fry:dom")
)

type resolverFixture struct {
	session   *messagingtest.Session
	clock     *clock.FakeClock
	directory *Directory
	resolver  *Resolver
}

func newResolverFixture(t *testing.T, sync *messagingtest.SyncBuilder) *resolverFixture {
	t.Helper()
	session := messagingtest.NewSession(bot)
	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	invoker := invoke.New(invoke.Config{
		Session: session,
		Clock:   fakeClock,
		Logger:  quietLogger(),
	})
	directory := NewDirectory(quietLogger())
	directory.Ingest(sync.Build())
	return &resolverFixture{
		session:   session,
		clock:     fakeClock,
		directory: directory,
		resolver:  NewResolver(invoker, directory, bot, quietLogger()),
	}
}

func TestResolveExistingInvitedRoom(t *testing.T) {
	fixture := newResolverFixture(t, messagingtest.NewSync("s1").Join("!group:dom").Join("!dm:dom"))
	fixture.session.SetMembers(ref.MustParseRoomID("!group:dom"),
		"@bender:dom=join", "@fry:dom=join", "@leela:dom=join")
	fixture.session.SetMembers(ref.MustParseRoomID("!dm:dom"),
		"@bender:dom=join", "@fry:dom=invite")

	roomID, ok := fixture.resolver.ResolveDirectRoom(context.Background(), fry)
	if !ok || roomID.String() != "!dm:dom" {
		t.Fatalf("ResolveDirectRoom = %q, %v; want !dm:dom", roomID, ok)
	}
	if calls := fixture.session.CallsTo("CreateRoom"); len(calls) != 0 {
		t.Errorf("created %d rooms, want none", len(calls))
	}
	// One membership fetch per room serves both passes.
	if calls := fixture.session.CallsTo("GetRoomMembers"); len(calls) != 2 {
		t.Errorf("fetched membership %d times, want 2", len(calls))
	}
}

func TestResolveRequiresBotJoined(t *testing.T) {
	fixture := newResolverFixture(t, messagingtest.NewSync("s1").Join("!pending:dom"))
	fixture.session.SetMembers(ref.MustParseRoomID("!pending:dom"),
		"@bender:dom=invite", "@fry:dom=join")

	roomID, ok := fixture.resolver.ResolveDirectRoom(context.Background(), fry)
	if !ok || roomID.String() == "!pending:dom" {
		t.Fatalf("ResolveDirectRoom = %q, %v; want a newly created room", roomID, ok)
	}
	if calls := fixture.session.CallsTo("CreateRoom"); len(calls) != 1 {
		t.Fatalf("created %d rooms, want 1", len(calls))
	}
	if invite := fixture.session.CallsTo("CreateRoom")[0].Create.Invite; len(invite) != 1 || invite[0] != "@fry:dom" {
		t.Errorf("invite = %v, want [@fry:dom]", invite)
	}
}

func TestResolveReleasesAbandonedRooms(t *testing.T) {
	fixture := newResolverFixture(t, messagingtest.NewSync("s1").Join("!stale:dom").Join("!dm:dom"))
	stale := ref.MustParseRoomID("!stale:dom")
	fixture.session.SetMembers(stale, "@bender:dom=join", "@fry:dom=leave")
	fixture.session.SetMembers(ref.MustParseRoomID("!dm:dom"), "@bender:dom=join", "@fry:dom=join")

	roomID, ok := fixture.resolver.ResolveDirectRoom(context.Background(), fry)
	if !ok || roomID.String() != "!dm:dom" {
		t.Fatalf("ResolveDirectRoom = %q, %v", roomID, ok)
	}
	kicks := fixture.session.CallsTo("KickUser")
	if len(kicks) != 1 || kicks[0].RoomID != stale || kicks[0].UserID != bot {
		t.Errorf("kicks = %+v, want the bot kicked from !stale", kicks)
	}
	forgets := fixture.session.CallsTo("ForgetRoom")
	if len(forgets) != 1 || forgets[0].RoomID != stale {
		t.Errorf("forgets = %+v", forgets)
	}

	// A second resolution in the same snapshot does not release again.
	fixture.session.Reset()
	fixture.resolver.ResolveDirectRoom(context.Background(), fry)
	if kicks := fixture.session.CallsTo("KickUser"); len(kicks) != 0 {
		t.Errorf("released again: %+v", kicks)
	}
}

func TestResolveNeverCreatesTwiceInOneSnapshot(t *testing.T) {
	fixture := newResolverFixture(t, messagingtest.NewSync("s1").Join("!group:dom"))
	fixture.session.SetMembers(ref.MustParseRoomID("!group:dom"),
		"@bender:dom=join", "@fry:dom=join", "@leela:dom=join")

	first, ok := fixture.resolver.ResolveDirectRoom(context.Background(), fry)
	if !ok {
		t.Fatal("first resolution failed")
	}
	second, ok := fixture.resolver.ResolveDirectRoom(context.Background(), fry)
	if !ok || second != first {
		t.Fatalf("second resolution = %q, want %q", second, first)
	}
	if calls := fixture.session.CallsTo("CreateRoom"); len(calls) != 1 {
		t.Errorf("created %d rooms, want 1", len(calls))
	}

	// Once the directory includes the created room, the search finds it.
	fixture.directory.Ingest(messagingtest.NewSync("s2").Join("!group:dom").Join(first.String()).Build())
	third, ok := fixture.resolver.ResolveDirectRoom(context.Background(), fry)
	if !ok || third != first {
		t.Fatalf("third resolution = %q, want %q", third, first)
	}
	if calls := fixture.session.CallsTo("CreateRoom"); len(calls) != 1 {
		t.Errorf("created %d rooms after directory caught up, want 1", len(calls))
	}
}

func TestResolveCreateFailure(t *testing.T) {
	fixture := newResolverFixture(t, messagingtest.NewSync("s1"))
	fixture.session.FailNext("CreateRoom", createAttempts, nil)

	done := make(chan bool, 1)
	go func() {
		_, ok := fixture.resolver.ResolveDirectRoom(context.Background(), fry)
		done <- ok
	}()
	for range createAttempts - 1 {
		fixture.clock.WaitForTimers(1)
		fixture.clock.Advance(invoke.DefaultDelay)
	}
	if ok := <-done; ok {
		t.Fatal("expected resolution to fail")
	}
	if calls := fixture.session.CallsTo("CreateRoom"); len(calls) != createAttempts {
		t.Errorf("CreateRoom attempts = %d, want %d", len(calls), createAttempts)
	}
}
