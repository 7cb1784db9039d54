// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugintest provides a recording [plugin.Handler] for plugin
// tests.
package plugintest

import (
	"context"
	"sync"

	"github.com/bureau-foundation/matrixbot/lib/command"
	"github.com/bureau-foundation/matrixbot/lib/plugin"
	"github.com/bureau-foundation/matrixbot/lib/ref"
)

// Sent is one outbound message.
type Sent struct {
	Room    ref.RoomID
	User    ref.UserID // set for private messages
	Text    string
	HTML    bool
	MsgType string
}

// Handler records every call. Sends succeed unless FailSends is set.
// Rooms maps aliases to room IDs for ResolveRoom; room IDs resolve to
// themselves.
type Handler struct {
	Rooms     map[string]ref.RoomID
	FailSends bool

	interpreter *command.Interpreter

	mu         sync.Mutex
	sent       []Sent
	requests   []plugin.MembershipRequest
	resolveLog []string
}

// NewHandler creates a handler that recognizes commands addressed to
// botName.
func NewHandler(botName string) *Handler {
	return &Handler{
		Rooms:       make(map[string]ref.RoomID),
		interpreter: command.NewInterpreter(command.Config{Name: botName}),
	}
}

func (h *Handler) SendMessage(ctx context.Context, room ref.RoomID, text string) bool {
	return h.record(Sent{Room: room, Text: text})
}

func (h *Handler) SendHTML(ctx context.Context, room ref.RoomID, html, msgType string) bool {
	return h.record(Sent{Room: room, Text: html, HTML: true, MsgType: msgType})
}

func (h *Handler) SendPrivateMessage(ctx context.Context, user ref.UserID, text string) bool {
	return h.record(Sent{User: user, Text: text})
}

func (h *Handler) ResolveRoom(ctx context.Context, roomIDOrAlias string) (ref.RoomID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolveLog = append(h.resolveLog, roomIDOrAlias)
	if roomID, ok := h.Rooms[roomIDOrAlias]; ok {
		return roomID, true
	}
	if roomID, err := ref.ParseRoomID(roomIDOrAlias); err == nil {
		return roomID, true
	}
	return ref.RoomID{}, false
}

func (h *Handler) IsCommand(body, keyword string) bool {
	return h.interpreter.IsCommand(body, keyword)
}

func (h *Handler) RunMembershipCommand(ctx context.Context, request plugin.MembershipRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, request)
}

// Sent returns every recorded send in order.
func (h *Handler) Sent() []Sent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Sent(nil), h.sent...)
}

// Requests returns every membership request in order.
func (h *Handler) Requests() []plugin.MembershipRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]plugin.MembershipRequest(nil), h.requests...)
}

// Resolved returns every ResolveRoom argument in order.
func (h *Handler) Resolved() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.resolveLog...)
}

// Reset forgets recorded calls.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = nil
	h.requests = nil
	h.resolveLog = nil
}

func (h *Handler) record(sent Sent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, sent)
	return !h.FailSends
}

var _ plugin.Handler = (*Handler)(nil)
