// Package finalizer reconstructs a single Message from streamed,
// possibly out-of-order and multi-part updates, flushing at most once
// per message id after a debounce window of quiet.
package finalizer

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// DebounceWindow is the quiet period scheduleFinalize waits for before
// flushing a message; a tunable constant, not a protocol requirement.
const DebounceWindow = 800 * time.Millisecond

// MessageInfo carries the non-text metadata accumulated for a message.
type MessageInfo struct {
	Model            *string
	Source           *string
	PromptTokens     *int64
	CompletionTokens *int64
	DurationMs       *int64
	CreatedAt        *int64
	CompletedAt      *int64
}

type messageMeta struct {
	Role      string
	SessionID string
	Info      MessageInfo
}

// MetadataInput is the payload for stageMetadata.
type MetadataInput struct {
	ID        string
	SessionID string
	Role      string
	Info      MessageInfo
}

// Part is one streamed content fragment for a message.
type Part struct {
	Type      string
	MessageID string
	SessionID string
	Text      string
}

// FinalizedMessage is handed to the sink once a message id's content has
// settled.
type FinalizedMessage struct {
	MessageID   string
	SessionID   string
	Role        string
	TextContent string
	Info        MessageInfo
}

// Sink receives a finalized message; it typically forwards to
// rpcclient.Client.UpsertMessage.
type Sink func(FinalizedMessage)

// FinalizerContext holds all per-adapter-instance state: no package
// level maps, so tests (and concurrent adapters) never bleed into each
// other.
type FinalizerContext struct {
	mu        sync.Mutex
	metadata  map[string]*messageMeta
	partsText map[string]string
	timers    map[string]*debouncer
	finalized map[string]struct{}
}

// New returns an empty FinalizerContext.
func New() *FinalizerContext {
	return &FinalizerContext{
		metadata:  make(map[string]*messageMeta),
		partsText: make(map[string]string),
		timers:    make(map[string]*debouncer),
		finalized: make(map[string]struct{}),
	}
}

// StageMetadata upserts metadata[info.ID]. Both ID and SessionID are
// required.
func (f *FinalizerContext) StageMetadata(info MetadataInput) error {
	if info.ID == "" {
		return fmt.Errorf("finalizer: metadata requires a non-empty id")
	}
	if info.SessionID == "" {
		return fmt.Errorf("finalizer: metadata requires a non-empty sessionId")
	}

	role := info.Role
	if role == "" {
		role = "unknown"
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.metadata[info.ID]
	if !ok {
		f.metadata[info.ID] = &messageMeta{Role: role, SessionID: info.SessionID, Info: info.Info}
		return nil
	}

	existing.SessionID = info.SessionID
	existing.Info = info.Info
	if info.Role != "" {
		existing.Role = info.Role
	}
	return nil
}

// StagePart stages a part's content. Only text parts are retained;
// each new text part replaces the previous accumulation for its id
// (latest wins), matching the "replace, don't append" contract.
func (f *FinalizerContext) StagePart(part Part) {
	if part.Type != "text" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.partsText[part.MessageID] = part.Text

	if _, ok := f.metadata[part.MessageID]; !ok {
		f.metadata[part.MessageID] = &messageMeta{Role: "unknown", SessionID: part.SessionID}
	}
}

// ScheduleFinalize (re)starts the debounce timer for id. When it fires
// with no newer schedule in the interim, finalize runs once.
func (f *FinalizerContext) ScheduleFinalize(id string, sink Sink) {
	f.mu.Lock()
	d, ok := f.timers[id]
	if !ok {
		d = newDebouncer(DebounceWindow, func() { f.finalize(id, sink) })
		f.timers[id] = d
	}
	f.mu.Unlock()

	d.trigger()
}

// Cancel stops any pending timer for id without finalizing it, used
// during adapter teardown to avoid firing into a closed sink.
func (f *FinalizerContext) Cancel(id string) {
	f.mu.Lock()
	d, ok := f.timers[id]
	f.mu.Unlock()
	if ok {
		d.cancelAndWait()
	}
}

func (f *FinalizerContext) finalize(id string, sink Sink) {
	f.mu.Lock()

	if _, done := f.finalized[id]; done {
		f.mu.Unlock()
		return
	}

	meta, hasMeta := f.metadata[id]
	text, hasText := f.partsText[id]
	if !hasMeta || !hasText || strings.TrimSpace(text) == "" {
		f.mu.Unlock()
		return
	}

	role := meta.Role
	if role == "" || role == "unknown" {
		role = inferRole(text)
	}

	f.finalized[id] = struct{}{}
	result := FinalizedMessage{
		MessageID:   id,
		SessionID:   meta.SessionID,
		Role:        role,
		TextContent: text,
		Info:        meta.Info,
	}

	delete(f.metadata, id)
	delete(f.partsText, id)
	delete(f.timers, id)

	f.mu.Unlock()

	sink(result)
}
