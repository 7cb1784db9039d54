// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/matrixbot/lib/invoke"
	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// Attempt budgets for the calls a resolution makes.
const (
	membershipAttempts = 3
	releaseAttempts    = 1
	createAttempts     = 3
)

// Resolver finds or creates the direct room for a counterpart. It is
// owned by the sync loop's goroutine and is not safe for concurrent
// use.
type Resolver struct {
	invoker   *invoke.Invoker
	directory *Directory
	self      ref.UserID
	logger    *slog.Logger

	// generation is the directory generation the two maps below were
	// built against. Both reset when a new snapshot arrives.
	generation uint64

	// created holds rooms this resolver created that the directory has
	// not caught up with yet, so a second resolution inside the same
	// snapshot reuses them instead of creating another.
	created map[ref.UserID]ref.RoomID

	// released holds rooms already kicked-and-forgotten, so they are
	// neither released twice nor returned as a match.
	released map[ref.RoomID]bool
}

// NewResolver creates a resolver for the bot identity self.
func NewResolver(invoker *invoke.Invoker, directory *Directory, self ref.UserID, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		invoker:   invoker,
		directory: directory,
		self:      self,
		logger:    logger.With("component", "resolver"),
		created:   make(map[ref.UserID]ref.RoomID),
		released:  make(map[ref.RoomID]bool),
	}
}

// ResolveDirectRoom returns the direct room with counterpart, creating
// one if necessary. ok is false when no room could be found or created.
//
// Membership is fetched once per known room and shared by the
// reclaim pass and the search.
func (r *Resolver) ResolveDirectRoom(ctx context.Context, counterpart ref.UserID) (ref.RoomID, bool) {
	snapshot := r.directory.Snapshot()
	if snapshot.Generation() != r.generation {
		r.generation = snapshot.Generation()
		clear(r.created)
		clear(r.released)
	}

	memberships := make(map[ref.RoomID][]messaging.RoomMember)
	var candidates []ref.RoomID
	for _, roomID := range snapshot.RoomIDs() {
		if r.released[roomID] {
			continue
		}
		members, ok := invoke.Do(ctx, r.invoker, invoke.GetRoomMembers{Room: roomID}, membershipAttempts)
		if !ok {
			r.logger.Debug("no membership data, skipping room", "room_id", roomID)
			continue
		}
		if isAbandoned(members) {
			r.release(ctx, roomID)
			continue
		}
		memberships[roomID] = members
		candidates = append(candidates, roomID)
	}

	for _, roomID := range candidates {
		if isDirectRoomWith(memberships[roomID], r.self, counterpart) {
			return roomID, true
		}
	}

	if roomID, ok := r.created[counterpart]; ok {
		return roomID, true
	}

	roomID, ok := invoke.Do(ctx, r.invoker, invoke.CreateRoom{Invite: []ref.UserID{counterpart}}, createAttempts)
	if !ok {
		return ref.RoomID{}, false
	}
	r.logger.Info("created direct room", "room_id", roomID, "counterpart", counterpart)
	r.created[counterpart] = roomID
	return roomID, true
}

// release kicks the bot out of roomID and forgets it.
func (r *Resolver) release(ctx context.Context, roomID ref.RoomID) {
	r.released[roomID] = true
	r.logger.Info("releasing abandoned room", "room_id", roomID)
	invoke.Do(ctx, r.invoker, invoke.KickUser{Room: roomID, User: r.self}, releaseAttempts)
	invoke.Do(ctx, r.invoker, invoke.ForgetRoom{Room: roomID}, releaseAttempts)
}

// isAbandoned reports whether a room with these members is a direct
// room one side has left.
func isAbandoned(members []messaging.RoomMember) bool {
	if len(members) > 2 {
		return false
	}
	for _, member := range members {
		if member.Membership == messaging.MembershipLeave {
			return true
		}
	}
	return false
}

// isDirectRoomWith reports whether members are exactly self (joined)
// and counterpart (joined or invited).
func isDirectRoomWith(members []messaging.RoomMember, self, counterpart ref.UserID) bool {
	if len(members) != 2 {
		return false
	}
	var selfJoined, counterpartPresent bool
	for _, member := range members {
		switch member.UserID {
		case self:
			selfJoined = member.Membership == messaging.MembershipJoin
		case counterpart:
			counterpartPresent = member.Membership == messaging.MembershipJoin ||
				member.Membership == messaging.MembershipInvite
		}
	}
	return selfJoined && counterpartPresent
}
