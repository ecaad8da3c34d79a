// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the set of conversation threads.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/jelly/internal/model"
	"github.com/jeranaias/jelly/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrThreadNotFound is returned when an operation references a thread id that
// does not exist. Use errors.Is(err, ErrThreadNotFound) to check.
var ErrThreadNotFound = errors.New("thread not found")

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultThreadID is the fixed id of the synthesized default thread.
	DefaultThreadID = "main"

	// DefaultThreadTitle is the title of the synthesized default thread.
	DefaultThreadTitle = "Main Conversation"

	// snapshotFile is the filename of the persisted store snapshot.
	snapshotFile = "threads.json"
)

// =============================================================================
// THREAD STORE
// =============================================================================

// Store holds all threads and their message history.
//
// Every operation takes the store lock; a single coarse mutex is enough at
// the expected scale (single-digit concurrent threads). The store guarantees
// that at least one thread exists at all times: deleting the last thread
// synthesizes the default thread inside the same mutation, so the invariant
// never breaks even transiently.
type Store struct {
	mu      sync.Mutex
	threads map[string]*model.Thread
	seq     uint64

	// dataDir enables snapshot persistence when non-empty.
	dataDir string
	logger  *zap.Logger
}

// New creates an in-memory store seeded with the default thread.
func New(logger *zap.Logger) *Store {
	return NewWithDir("", logger)
}

// NewWithDir creates a store that persists snapshots under dataDir. An empty
// dataDir disables persistence. A previous snapshot, if present and readable,
// is loaded; otherwise the store starts with the default thread.
func NewWithDir(dataDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		threads: make(map[string]*model.Thread),
		dataDir: dataDir,
		logger:  logger,
	}
	if dataDir != "" {
		s.load()
	}
	if len(s.threads) == 0 {
		s.threads[DefaultThreadID] = s.newDefaultThread()
	}
	return s
}

// newDefaultThread builds the default thread with the next sequence number.
func (s *Store) newDefaultThread() *model.Thread {
	s.seq++
	return model.NewThread(DefaultThreadID, DefaultThreadTitle, s.seq)
}

// =============================================================================
// CREATE
// =============================================================================

// Create generates a new empty thread and stores it. If initialTitle is
// empty the title defaults to "New Chat <n>" where n is the thread count at
// creation time. The returned thread is a clone.
//
// IDs embed the monotonic sequence number plus a random disambiguator, so
// they are collision-free even under rapid successive calls.
func (s *Store) Create(initialTitle string) *model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := initialTitle
	if title == "" {
		title = "New Chat " + strconv.Itoa(len(s.threads))
	}

	s.seq++
	id := generateThreadID(s.seq)
	t := model.NewThread(id, title, s.seq)
	s.threads[id] = t

	s.persistLocked()
	return t.Clone()
}

// =============================================================================
// READ
// =============================================================================

// Get returns a clone of the thread with the given id.
func (s *Store) Get(id string) (*model.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return nil, ErrThreadNotFound
	}
	return t.Clone(), nil
}

// Exists reports whether a thread with the given id is present.
func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.threads[id]
	return ok
}

// Count returns the number of threads. Always >= 1.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// ListSorted returns thread metadata ordered by creation time descending
// (newest first). Threads created within the same wall-clock instant keep
// their insertion order relative to each other.
func (s *Store) ListSorted() []model.ThreadMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := s.sortedLocked()
	metas := make([]model.ThreadMeta, len(sorted))
	for i, t := range sorted {
		metas[i] = t.Meta()
	}
	return metas
}

// Newest returns the id of the most recently created thread, in the same
// order ListSorted uses.
func (s *Store) Newest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()[0].ID
}

// sortedLocked returns threads newest-first. Caller must hold s.mu.
func (s *Store) sortedLocked() []*model.Thread {
	all := make([]*model.Thread, 0, len(s.threads))
	for _, t := range s.threads {
		all = append(all, t)
	}
	// Seed with insertion order, then stable-sort by creation time so that
	// equal timestamps keep insertion order.
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Rename changes a thread's title. Renaming to an empty string is a no-op,
// as is renaming a thread to its current title; neither touches the store or
// triggers persistence. Otherwise the thread must exist.
func (s *Store) Rename(id, newTitle string) error {
	if newTitle == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return ErrThreadNotFound
	}
	if t.Title == newTitle {
		return nil
	}

	t.Title = newTitle
	s.persistLocked()
	return nil
}

// Delete removes a thread. If the store would become empty, the default
// thread is synthesized inside the same mutation, so callers never observe
// an empty store.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[id]; !ok {
		return ErrThreadNotFound
	}
	delete(s.threads, id)

	if len(s.threads) == 0 {
		s.threads[DefaultThreadID] = s.newDefaultThread()
	}

	s.persistLocked()
	return nil
}

// AppendMessage appends a message to a thread's history and returns a copy
// of the stored message.
func (s *Store) AppendMessage(id string, role model.Role, content string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[id]
	if !ok {
		return nil, ErrThreadNotFound
	}

	msg := model.NewMessage(role, content)
	t.Append(msg)

	s.persistLocked()
	msgCopy := *msg
	return &msgCopy, nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// snapshot is the on-disk representation of the store.
type snapshot struct {
	Seq     uint64          `json:"seq"`
	Threads []*model.Thread `json:"threads"`
}

// persistLocked writes the current state to disk. Persistence is best
// effort: a failed write is logged but never fails the mutation, since the
// in-memory state is authoritative. Caller must hold s.mu.
func (s *Store) persistLocked() {
	if s.dataDir == "" {
		return
	}

	snap := snapshot{Seq: s.seq, Threads: s.sortedLocked()}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		s.logger.Warn("failed to encode thread snapshot", zap.Error(err))
		return
	}

	path := filepath.Join(s.dataDir, snapshotFile)
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		s.logger.Warn("failed to persist thread snapshot", zap.Error(err))
	}
}

// load reads a snapshot from disk, if one exists. Only called during
// construction, before the store is shared.
func (s *Store) load() {
	path := filepath.Join(s.dataDir, snapshotFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read thread snapshot", zap.Error(err))
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("corrupt thread snapshot, starting fresh", zap.Error(err))
		return
	}

	s.seq = snap.Seq
	for _, t := range snap.Threads {
		if t.ID == "" {
			continue
		}
		s.threads[t.ID] = t
		if t.Seq > s.seq {
			s.seq = t.Seq
		}
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateThreadID creates a unique thread ID from the monotonic sequence
// number plus a random disambiguator.
func generateThreadID(seq uint64) string {
	bytes := make([]byte, 4)
	rand.Read(bytes)
	return "thread_" + strconv.FormatUint(seq, 10) + "_" + hex.EncodeToString(bytes)
}
