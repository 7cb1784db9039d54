// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messagingtest provides an in-memory messaging.Session for
// tests of code that drives the homeserver.
package messagingtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bureau-foundation/matrixbot/lib/ref"
	"github.com/bureau-foundation/matrixbot/messaging"
)

// ErrScripted is the default error returned by scripted failures.
var ErrScripted = errors.New("messagingtest: scripted failure")

// Call is one recorded session operation.
type Call struct {
	Method string
	RoomID ref.RoomID
	UserID ref.UserID
	// Target is the alias or ID passed to JoinRoom.
	Target string
	// TransactionID is the ID passed to SendMessage.
	TransactionID string
	Content       messaging.MessageContent
	Create        messaging.CreateRoomRequest
}

// Session is a scriptable in-memory messaging.Session. Every method
// call is recorded, whether or not it fails. The zero value is not
// usable; construct with NewSession.
type Session struct {
	mu sync.Mutex

	userID   ref.UserID
	calls    []Call
	failures map[string][]error

	members    map[ref.RoomID][]messaging.RoomMember
	names      map[ref.RoomID]string
	joinTarget map[string]ref.RoomID
	syncs      []*messaging.SyncResponse

	createdCount int
}

var _ messaging.Session = (*Session)(nil)

// NewSession returns a fake session authenticated as userID.
func NewSession(userID ref.UserID) *Session {
	return &Session{
		userID:     userID,
		failures:   make(map[string][]error),
		members:    make(map[ref.RoomID][]messaging.RoomMember),
		names:      make(map[ref.RoomID]string),
		joinTarget: make(map[string]ref.RoomID),
	}
}

// FailNext makes the next count calls to method fail with err (or
// ErrScripted when err is nil). Method names match the Session method
// names, e.g. "InviteUser".
func (s *Session) FailNext(method string, count int, err error) {
	if err == nil {
		err = ErrScripted
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for range count {
		s.failures[method] = append(s.failures[method], err)
	}
}

// SetMembers sets the membership list GetRoomMembers returns for
// roomID. Each entry is "@user:server=membership".
func (s *Session) SetMembers(roomID ref.RoomID, entries ...string) {
	members := make([]messaging.RoomMember, 0, len(entries))
	for _, entry := range entries {
		user, membership, _ := strings.Cut(entry, "=")
		members = append(members, messaging.RoomMember{
			UserID:     ref.MustParseUserID(user),
			Membership: membership,
		})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[roomID] = members
}

// SetRoomName sets the name GetRoomName returns for roomID.
func (s *Session) SetRoomName(roomID ref.RoomID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[roomID] = name
}

// SetJoinTarget makes JoinRoom(target) resolve to roomID. Unmapped
// targets that are room IDs resolve to themselves.
func (s *Session) SetJoinTarget(target string, roomID ref.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinTarget[target] = roomID
}

// QueueSync appends a response for Sync to return. Once the queue is
// empty Sync returns an empty response that repeats the last cursor.
func (s *Session) QueueSync(response *messaging.SyncResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs = append(s.syncs, response)
}

// Calls returns a copy of every recorded call.
func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded calls to method.
func (s *Session) CallsTo(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []Call
	for _, call := range s.calls {
		if call.Method == method {
			matched = append(matched, call)
		}
	}
	return matched
}

// Messages returns the plain bodies of every SendMessage call, in order.
func (s *Session) Messages() []string {
	var bodies []string
	for _, call := range s.CallsTo("SendMessage") {
		bodies = append(bodies, call.Content.Body)
	}
	return bodies
}

// Reset forgets recorded calls. Scripted state is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// record appends call and returns the scripted failure for it, if any.
func (s *Session) record(call Call) error {
	s.calls = append(s.calls, call)
	queue := s.failures[call.Method]
	if len(queue) == 0 {
		return nil
	}
	s.failures[call.Method] = queue[1:]
	return queue[0]
}

func (s *Session) UserID() ref.UserID { return s.userID }

func (s *Session) SendMessage(_ context.Context, roomID ref.RoomID, transactionID string, content messaging.MessageContent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Method: "SendMessage", RoomID: roomID, TransactionID: transactionID, Content: content}); err != nil {
		return "", err
	}
	return fmt.Sprintf("$event%d", len(s.calls)), nil
}

func (s *Session) InviteUser(_ context.Context, roomID ref.RoomID, userID ref.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(Call{Method: "InviteUser", RoomID: roomID, UserID: userID})
}

func (s *Session) KickUser(_ context.Context, roomID ref.RoomID, userID ref.UserID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(Call{Method: "KickUser", RoomID: roomID, UserID: userID})
}

func (s *Session) GetRoomMembers(_ context.Context, roomID ref.RoomID) ([]messaging.RoomMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Method: "GetRoomMembers", RoomID: roomID}); err != nil {
		return nil, err
	}
	return append([]messaging.RoomMember(nil), s.members[roomID]...), nil
}

// CreateRoom returns sequential IDs "!created1:<server>", ... on the
// session user's server. The created room's membership is the bot
// joined plus every invitee invited.
func (s *Session) CreateRoom(_ context.Context, request messaging.CreateRoomRequest) (*messaging.CreateRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Method: "CreateRoom", Create: request}); err != nil {
		return nil, err
	}
	s.createdCount++
	roomID := ref.MustParseRoomID(fmt.Sprintf("!created%d:%s", s.createdCount, s.userID.Server()))
	members := []messaging.RoomMember{{UserID: s.userID, Membership: messaging.MembershipJoin}}
	for _, invitee := range request.Invite {
		if userID, err := ref.ParseUserID(invitee); err == nil {
			members = append(members, messaging.RoomMember{UserID: userID, Membership: messaging.MembershipInvite})
		}
	}
	s.members[roomID] = members
	return &messaging.CreateRoomResponse{RoomID: roomID}, nil
}

func (s *Session) ForgetRoom(_ context.Context, roomID ref.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(Call{Method: "ForgetRoom", RoomID: roomID})
}

func (s *Session) JoinRoom(_ context.Context, target string) (ref.RoomID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Method: "JoinRoom", Target: target}); err != nil {
		return ref.RoomID{}, err
	}
	if roomID, ok := s.joinTarget[target]; ok {
		return roomID, nil
	}
	roomID, err := ref.ParseRoomID(target)
	if err != nil {
		return ref.RoomID{}, &messaging.MatrixError{Code: messaging.ErrCodeNotFound, Message: "unknown room " + target, StatusCode: 404}
	}
	return roomID, nil
}

func (s *Session) GetRoomName(_ context.Context, roomID ref.RoomID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Method: "GetRoomName", RoomID: roomID}); err != nil {
		return "", err
	}
	name, ok := s.names[roomID]
	if !ok {
		return "", &messaging.MatrixError{Code: messaging.ErrCodeNotFound, Message: "Event not found.", StatusCode: 404}
	}
	return name, nil
}

func (s *Session) Sync(_ context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Method: "Sync", Target: options.Since}); err != nil {
		return nil, err
	}
	if len(s.syncs) == 0 {
		return &messaging.SyncResponse{NextBatch: options.Since}, nil
	}
	response := s.syncs[0]
	s.syncs = s.syncs[1:]
	return response, nil
}
