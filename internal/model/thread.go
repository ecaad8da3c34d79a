// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for threads and messages.
package model

import (
	"time"
)

// =============================================================================
// THREAD TYPE
// =============================================================================

// Thread holds one independent conversation with its message history and
// metadata.
//
// ID and CreatedAt are set once at creation and never change. Seq is a
// process-wide monotonic creation-order key assigned by the store; it breaks
// ties between threads created within the same wall-clock instant.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Seq       uint64    `json:"seq"`

	// Messages is append-only; insertion order is significant.
	Messages []*Message `json:"messages"`
}

// NewThread creates a thread with the given identity. The store owns ID and
// Seq assignment; this constructor just assembles the value.
func NewThread(id, title string, seq uint64) *Thread {
	return &Thread{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now(),
		Seq:       seq,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the end of the thread.
func (t *Thread) Append(msg *Message) {
	t.Messages = append(t.Messages, msg)
}

// MessageCount returns the number of messages.
func (t *Thread) MessageCount() int {
	return len(t.Messages)
}

// IsEmpty returns true if there are no messages.
func (t *Thread) IsEmpty() bool {
	return len(t.Messages) == 0
}

// LastMessage returns the most recent message, or nil if empty.
func (t *Thread) LastMessage() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// Tail returns the last n messages in original order. The returned slice
// aliases the thread's messages; callers must not mutate it.
func (t *Thread) Tail(n int) []*Message {
	if n <= 0 || len(t.Messages) == 0 {
		return nil
	}
	if len(t.Messages) <= n {
		return t.Messages
	}
	return t.Messages[len(t.Messages)-n:]
}

// Preview returns a short preview of the thread's first user message, or
// empty if the thread has none.
func (t *Thread) Preview() string {
	for _, msg := range t.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return msg.Preview(80)
		}
	}
	return ""
}

// Clone creates a deep copy of the thread. The store hands clones to callers
// so readers never share message slices with the guarded original.
func (t *Thread) Clone() *Thread {
	clone := &Thread{
		ID:        t.ID,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		Seq:       t.Seq,
		Messages:  make([]*Message, len(t.Messages)),
	}
	for i, msg := range t.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// =============================================================================
// METADATA
// =============================================================================

// ThreadMeta holds lightweight metadata for listing threads without their
// message bodies.
type ThreadMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// Meta returns metadata about the thread.
func (t *Thread) Meta() ThreadMeta {
	return ThreadMeta{
		ID:           t.ID,
		Title:        t.Title,
		CreatedAt:    t.CreatedAt,
		MessageCount: len(t.Messages),
		Preview:      t.Preview(),
	}
}
