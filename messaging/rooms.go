// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// Room categories of a /sync response, as they appear under "rooms".
const (
	CategoryJoin   = "join"
	CategoryInvite = "invite"
	CategoryLeave  = "leave"
)

// defaultCategories is the walk order for sections that were built in
// code rather than decoded from a payload.
var defaultCategories = []string{CategoryJoin, CategoryInvite, CategoryLeave}

// RoomsSection contains per-room sync data grouped by membership state.
//
// Decoding preserves the order of both the categories and the rooms
// within each category exactly as the homeserver sent them. Walk
// visits rooms in that order.
type RoomsSection struct {
	Join   RoomMap[JoinedRoom]
	Invite RoomMap[InvitedRoom]
	Leave  RoomMap[LeftRoom]

	// categories records the order categories appeared in the payload.
	categories []string
}

// Categories returns the category order: payload order when decoded,
// join/invite/leave otherwise.
func (s RoomsSection) Categories() []string {
	if len(s.categories) == 0 {
		return defaultCategories
	}
	return s.categories
}

// Walk calls visit for every room in category-then-room order. state
// holds the room's state events: the state section followed by any
// state events from the timeline (invite_state for invited rooms), so
// the last event of a given type is the most recent.
func (s RoomsSection) Walk(visit func(category string, roomID ref.RoomID, state []Event)) {
	for _, category := range s.Categories() {
		switch category {
		case CategoryJoin:
			s.Join.Each(func(roomID ref.RoomID, room JoinedRoom) {
				visit(category, roomID, mergeState(room.State, room.Timeline))
			})
		case CategoryInvite:
			s.Invite.Each(func(roomID ref.RoomID, room InvitedRoom) {
				visit(category, roomID, room.InviteState.Events)
			})
		case CategoryLeave:
			s.Leave.Each(func(roomID ref.RoomID, room LeftRoom) {
				visit(category, roomID, mergeState(room.State, room.Timeline))
			})
		}
	}
}

func mergeState(state StateSection, timeline TimelineSection) []Event {
	merged := make([]Event, 0, len(state.Events))
	merged = append(merged, state.Events...)
	for _, event := range timeline.Events {
		if event.IsState() {
			merged = append(merged, event)
		}
	}
	return merged
}

// UnmarshalJSON implements json.Unmarshaler, keeping payload order.
// Unknown categories (knock, future additions) are ignored.
func (s *RoomsSection) UnmarshalJSON(data []byte) error {
	fields, err := decodeOrderedObject(data)
	if err != nil {
		return fmt.Errorf("rooms: %w", err)
	}
	*s = RoomsSection{}
	for _, field := range fields {
		switch field.key {
		case CategoryJoin:
			err = s.Join.UnmarshalJSON(field.value)
		case CategoryInvite:
			err = s.Invite.UnmarshalJSON(field.value)
		case CategoryLeave:
			err = s.Leave.UnmarshalJSON(field.value)
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("rooms.%s: %w", field.key, err)
		}
		s.categories = appendUnique(s.categories, field.key)
	}
	return nil
}

// MarshalJSON implements json.Marshaler in Categories order.
func (s RoomsSection) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	written := 0
	for _, category := range s.Categories() {
		var encoded []byte
		var err error
		switch category {
		case CategoryJoin:
			encoded, err = s.Join.MarshalJSON()
		case CategoryInvite:
			encoded, err = s.Invite.MarshalJSON()
		case CategoryLeave:
			encoded, err = s.Leave.MarshalJSON()
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		if written > 0 {
			buffer.WriteByte(',')
		}
		key, _ := json.Marshal(category)
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(encoded)
		written++
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// RoomMap is an insertion-ordered map from room ID to per-room sync
// data. The zero value is an empty map ready to use.
type RoomMap[T any] struct {
	order []ref.RoomID
	rooms map[ref.RoomID]T
}

// Set stores value for roomID. A new room is appended to the order; an
// existing room keeps its position and takes the new value.
func (m *RoomMap[T]) Set(roomID ref.RoomID, value T) {
	if m.rooms == nil {
		m.rooms = make(map[ref.RoomID]T)
	}
	if _, exists := m.rooms[roomID]; !exists {
		m.order = append(m.order, roomID)
	}
	m.rooms[roomID] = value
}

// Get returns the value for roomID.
func (m RoomMap[T]) Get(roomID ref.RoomID) (T, bool) {
	value, ok := m.rooms[roomID]
	return value, ok
}

// Len returns the number of rooms.
func (m RoomMap[T]) Len() int { return len(m.order) }

// RoomIDs returns the room IDs in order. The slice is a copy.
func (m RoomMap[T]) RoomIDs() []ref.RoomID {
	return append([]ref.RoomID(nil), m.order...)
}

// Each calls visit for every room in order.
func (m RoomMap[T]) Each(visit func(ref.RoomID, T)) {
	for _, roomID := range m.order {
		visit(roomID, m.rooms[roomID])
	}
}

// UnmarshalJSON implements json.Unmarshaler. Entries whose key is not a
// valid room ID or whose value does not decode are dropped: a single
// malformed room is treated as absent rather than failing the whole
// sync response.
func (m *RoomMap[T]) UnmarshalJSON(data []byte) error {
	fields, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	*m = RoomMap[T]{}
	for _, field := range fields {
		roomID, err := ref.ParseRoomID(field.key)
		if err != nil {
			continue
		}
		var value T
		if err := json.Unmarshal(field.value, &value); err != nil {
			continue
		}
		m.Set(roomID, value)
	}
	return nil
}

// MarshalJSON implements json.Marshaler, writing rooms in order.
func (m RoomMap[T]) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for index, roomID := range m.order {
		if index > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(roomID.String())
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.rooms[roomID])
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", roomID, err)
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

type orderedField struct {
	key   string
	value json.RawMessage
}

// decodeOrderedObject splits a JSON object into its members in
// document order. JSON null decodes to no members.
func decodeOrderedObject(data []byte) ([]orderedField, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	if delimiter, ok := token.(json.Delim); !ok || delimiter != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", token)
	}

	var fields []orderedField
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyToken)
		}
		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		fields = append(fields, orderedField{key: key, value: value})
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
