// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"log/slog"
	"sync/atomic"

	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// Room is the directory's view of one room.
type Room struct {
	ID ref.RoomID

	// Category is the sync category the room appeared under (join,
	// invite, leave).
	Category string

	// Aliases come from the last m.room.aliases state event seen for
	// the room. Never nil.
	Aliases []string

	// Name comes from the room's m.room.name state event, when the
	// payload carried one.
	Name string
}

// Snapshot is one immutable generation of the directory.
type Snapshot struct {
	generation uint64
	order      []ref.RoomID
	rooms      map[ref.RoomID]Room
}

// Generation increases by one on every Ingest. The empty directory is
// generation 0.
func (s *Snapshot) Generation() uint64 { return s.generation }

// RoomIDs returns the room IDs in ingest order.
func (s *Snapshot) RoomIDs() []ref.RoomID {
	return append([]ref.RoomID(nil), s.order...)
}

// Room returns the entry for roomID.
func (s *Snapshot) Room(roomID ref.RoomID) (Room, bool) {
	room, ok := s.rooms[roomID]
	return room, ok
}

// Directory is the in-memory room cache. The zero value is not usable;
// construct with NewDirectory.
type Directory struct {
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger
}

// NewDirectory returns an empty directory.
func NewDirectory(logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	directory := &Directory{logger: logger.With("component", "rooms")}
	directory.current.Store(&Snapshot{rooms: map[ref.RoomID]Room{}})
	return directory
}

// Ingest replaces the directory with the rooms of response, in payload
// order (category order, then room order within each category). A room
// listed under more than one category keeps its first position.
func (d *Directory) Ingest(response *messaging.SyncResponse) {
	previous := d.current.Load()
	next := &Snapshot{
		generation: previous.generation + 1,
		rooms:      make(map[ref.RoomID]Room),
	}

	response.Rooms.Walk(func(category string, roomID ref.RoomID, state []messaging.Event) {
		room, seen := next.rooms[roomID]
		if !seen {
			room = Room{ID: roomID, Category: category, Aliases: []string{}}
			next.order = append(next.order, roomID)
		}
		for _, event := range state {
			switch event.Type {
			case messaging.EventTypeRoomAliases:
				aliases, ok := event.ContentStrings("aliases")
				if !ok {
					d.logger.Debug("ignoring malformed aliases event", "room_id", roomID, "event_id", event.EventID)
					continue
				}
				room.Aliases = aliases
			case messaging.EventTypeRoomName:
				if name, ok := event.ContentString("name"); ok {
					room.Name = name
				}
			}
		}
		next.rooms[roomID] = room
	})

	d.current.Store(next)
	d.logger.Debug("directory rebuilt", "generation", next.generation, "rooms", len(next.order))
}

// Snapshot returns the current snapshot. It never changes; later
// ingests produce new snapshots.
func (d *Directory) Snapshot() *Snapshot {
	return d.current.Load()
}

// Rooms returns the current room IDs in ingest order.
func (d *Directory) Rooms() []ref.RoomID {
	return d.current.Load().RoomIDs()
}

// AliasesOf returns the cached aliases of roomID, or an empty slice if
// the room is unknown or has none.
func (d *Directory) AliasesOf(roomID ref.RoomID) []string {
	room, ok := d.current.Load().rooms[roomID]
	if !ok {
		return []string{}
	}
	return append([]string{}, room.Aliases...)
}

// nameOf returns the cached m.room.name of roomID.
func (d *Directory) nameOf(roomID ref.RoomID) (string, bool) {
	room, ok := d.current.Load().rooms[roomID]
	if !ok || room.Name == "" {
		return "", false
	}
	return room.Name, true
}

// Generation returns the current snapshot's generation.
func (d *Directory) Generation() uint64 {
	return d.current.Load().generation
}
