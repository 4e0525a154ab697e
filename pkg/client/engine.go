// Package client keeps a client's view of channel message lists in sync
// with the server: mutations are applied optimistically for an instant UI,
// then reconciled against both the mutation's own response and the
// broadcasts arriving over the realtime gateway.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nebulachat/messaging/pkg/wire"
)

// Service is the mutation surface the engine talks to; Rest implements it
// over the HTTP API.
type Service interface {
	SendMessage(ctx context.Context, channelId uint, uuid string, draft Draft) (wire.Message, error)
	EditMessage(ctx context.Context, channelId uint, messageId uint, body string) (wire.Message, error)
	DeleteMessage(ctx context.Context, channelId uint, messageId uint) error
	ToggleReaction(ctx context.Context, channelId uint, messageId uint, emoji string) (wire.Message, error)
}

// Draft is an outgoing message before the server has seen it.
type Draft struct {
	Body        string
	Attachments []string
	ReplyToID   *uint
}

type Option func(*Engine)

// WithReleaser installs the hook that frees attachment placeholder
// resources once a send settles, successfully or not.
func WithReleaser(fn func(refs []string)) Option {
	return func(e *Engine) { e.release = fn }
}

// WithStatusHandler receives the non-message events (typing, user
// online/offline) the engine itself does not consume.
func WithStatusHandler(fn func(cmd wire.Command)) Option {
	return func(e *Engine) { e.status = fn }
}

type Engine struct {
	svc     Service
	userId  uint
	release func(refs []string)
	status  func(cmd wire.Command)

	mutex     sync.Mutex
	timelines map[uint]*timeline
}

func NewEngine(svc Service, userId uint, options ...Option) *Engine {
	engine := &Engine{
		svc:       svc,
		userId:    userId,
		release:   func([]string) {},
		status:    func(wire.Command) {},
		timelines: make(map[uint]*timeline),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// Open starts tracking a channel from a server-fetched history page, given
// newest first as the list endpoint returns it.
func (e *Engine) Open(channelId uint, history []wire.Message) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	tl := &timeline{}
	for idx := len(history) - 1; idx >= 0; idx-- {
		tl.entries = append(tl.entries, Entry{Kind: EntryConfirmed, Message: history[idx]})
	}
	tl.recomputeLast()
	e.timelines[channelId] = tl
}

// Leave discards the channel's local state. A mutation still in flight is
// not cancelled; its response reconciles into this channel's timeline if
// the channel is reopened, and is dropped otherwise (the reopen's history
// fetch already contains the message).
func (e *Engine) Leave(channelId uint) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.timelines, channelId)
}

// Entries returns a snapshot of the channel's visible list, confirmed
// messages first in server order, pending ones after.
func (e *Engine) Entries(channelId uint) []Entry {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	tl, ok := e.timelines[channelId]
	if !ok {
		return nil
	}
	return append([]Entry{}, tl.entries...)
}

// LastMessage reports the channel's last-message pointer, false when no
// confirmed message remains.
func (e *Engine) LastMessage(channelId uint) (uint, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	tl, ok := e.timelines[channelId]
	if !ok || tl.lastMessageId == 0 {
		return 0, false
	}
	return tl.lastMessageId, true
}

// Send appends an optimistic entry immediately and issues the mutation. On
// success the temporary entry is replaced in place by the authoritative
// message; on failure it is removed and the error returned. Attachment
// placeholders are released in either case.
func (e *Engine) Send(ctx context.Context, channelId uint, draft Draft) (wire.Message, error) {
	tempId := "tmp-" + uuid.NewString()

	e.mutex.Lock()
	if tl, ok := e.timelines[channelId]; ok {
		tl.appendPending(tempId, e.optimisticMessage(tempId, channelId, draft, tl))
	}
	e.mutex.Unlock()

	defer e.release(draft.Attachments)

	confirmed, err := e.svc.SendMessage(ctx, channelId, tempId, draft)

	e.mutex.Lock()
	defer e.mutex.Unlock()
	tl, ok := e.timelines[channelId]

	if err != nil {
		if ok {
			tl.removePending(tempId)
		}
		return wire.Message{}, err
	}
	if ok {
		tl.confirm(tempId, confirmed)
		tl.recomputeLast()
	}
	return confirmed, nil
}

// Edit rewrites a message optimistically, then reconciles with the server
// copy; a rejected edit restores the prior entry so the list is never left
// optimistic-but-wrong.
func (e *Engine) Edit(ctx context.Context, channelId uint, messageId uint, body string) error {
	e.mutex.Lock()
	snapshot := e.snapshotEntry(channelId, messageId)
	if tl, ok := e.timelines[channelId]; ok {
		if idx := tl.indexOfID(messageId); idx >= 0 {
			tl.entries[idx].Message.Body = body
			tl.entries[idx].Message.Edited = true
		}
	}
	e.mutex.Unlock()

	confirmed, err := e.svc.EditMessage(ctx, channelId, messageId, body)

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if err != nil {
		e.restoreEntry(channelId, messageId, snapshot)
		return err
	}
	if tl, ok := e.timelines[channelId]; ok {
		if idx := tl.indexOfID(messageId); idx >= 0 {
			tl.entries[idx].Message = confirmed
		}
	}
	return nil
}

// Delete removes the message optimistically and recomputes the last-message
// pointer; failure restores the prior list.
func (e *Engine) Delete(ctx context.Context, channelId uint, messageId uint) error {
	e.mutex.Lock()
	var entries []Entry
	var last uint
	tl, ok := e.timelines[channelId]
	if ok {
		entries = append([]Entry{}, tl.entries...)
		last = tl.lastMessageId
		tl.removeID(messageId)
		tl.recomputeLast()
	}
	e.mutex.Unlock()

	err := e.svc.DeleteMessage(ctx, channelId, messageId)
	if err != nil {
		e.mutex.Lock()
		if tl, ok := e.timelines[channelId]; ok {
			tl.entries = entries
			tl.lastMessageId = last
		}
		e.mutex.Unlock()
	}
	return err
}

// ToggleReaction applies the shared merge function speculatively; the
// server runs the identical function, so its response and the following
// broadcast converge on the same set.
func (e *Engine) ToggleReaction(ctx context.Context, channelId uint, messageId uint, emoji string) error {
	e.mutex.Lock()
	snapshot := e.snapshotEntry(channelId, messageId)
	if tl, ok := e.timelines[channelId]; ok {
		if idx := tl.indexOfID(messageId); idx >= 0 {
			entry := &tl.entries[idx]
			entry.Message.Reactions = wire.ToggleReaction(entry.Message.Reactions, e.userId, emoji)
		}
	}
	e.mutex.Unlock()

	confirmed, err := e.svc.ToggleReaction(ctx, channelId, messageId, emoji)

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if err != nil {
		e.restoreEntry(channelId, messageId, snapshot)
		return err
	}
	if tl, ok := e.timelines[channelId]; ok {
		if idx := tl.indexOfID(messageId); idx >= 0 {
			tl.entries[idx].Message = confirmed
		}
	}
	return nil
}

// Apply merges one gateway event into local state. Unknown message IDs are
// dropped rather than inserted out of order; duplicate creations are
// no-ops.
func (e *Engine) Apply(cmd wire.Command) {
	switch cmd.Action {
	case wire.EventMessageCreated:
		var msg wire.Message
		wire.DecodePayload(cmd.Payload, &msg)

		e.mutex.Lock()
		defer e.mutex.Unlock()
		tl, ok := e.timelines[msg.ChannelID]
		if !ok {
			return
		}
		switch {
		case tl.indexOfID(msg.ID) >= 0:
			// Duplicate broadcast, e.g. from another socket of the sender.
		case tl.indexOfPending(msg.Uuid) >= 0:
			// Our own send coming back before its response: confirm it at
			// its current position.
			tl.confirm(msg.Uuid, msg)
		default:
			tl.insertConfirmed(msg)
		}
		tl.recomputeLast()
	case wire.EventMessageUpdated:
		var msg wire.Message
		wire.DecodePayload(cmd.Payload, &msg)

		e.mutex.Lock()
		defer e.mutex.Unlock()
		if tl, ok := e.timelines[msg.ChannelID]; ok {
			if idx := tl.indexOfID(msg.ID); idx >= 0 {
				tl.entries[idx].Message = msg
			}
		}
	case wire.EventMessageDeleted:
		var tombstone wire.MessageTombstone
		wire.DecodePayload(cmd.Payload, &tombstone)

		e.mutex.Lock()
		defer e.mutex.Unlock()
		if tl, ok := e.timelines[tombstone.ChannelID]; ok {
			tl.removeID(tombstone.MessageID)
			tl.recomputeLast()
		}
	default:
		e.status(cmd)
	}
}

func (e *Engine) optimisticMessage(tempId string, channelId uint, draft Draft, tl *timeline) wire.Message {
	attachments := make([]wire.Attachment, 0, len(draft.Attachments))
	for _, ref := range draft.Attachments {
		attachments = append(attachments, wire.Attachment{Ref: ref})
	}

	// The provisional timestamp may never sort before the newest confirmed
	// message; the server's value replaces it on confirmation anyway.
	createdAt := time.Now()
	for idx := len(tl.entries) - 1; idx >= 0; idx-- {
		if tl.entries[idx].Kind == EntryConfirmed {
			if tl.entries[idx].Message.CreatedAt.After(createdAt) {
				createdAt = tl.entries[idx].Message.CreatedAt
			}
			break
		}
	}

	return wire.Message{
		Uuid:        tempId,
		ChannelID:   channelId,
		SenderID:    e.userId,
		Body:        draft.Body,
		Attachments: attachments,
		ReplyToID:   draft.ReplyToID,
		CreatedAt:   createdAt,
	}
}

func (e *Engine) snapshotEntry(channelId uint, messageId uint) *Entry {
	if tl, ok := e.timelines[channelId]; ok {
		if idx := tl.indexOfID(messageId); idx >= 0 {
			snapshot := tl.entries[idx]
			snapshot.Message.Reactions = append([]wire.Reaction{}, snapshot.Message.Reactions...)
			return &snapshot
		}
	}
	return nil
}

func (e *Engine) restoreEntry(channelId uint, messageId uint, snapshot *Entry) {
	if snapshot == nil {
		return
	}
	if tl, ok := e.timelines[channelId]; ok {
		if idx := tl.indexOfID(messageId); idx >= 0 {
			tl.entries[idx] = *snapshot
		}
	}
}

type timeline struct {
	entries       []Entry
	lastMessageId uint
}

func (t *timeline) indexOfID(id uint) int {
	if id == 0 {
		return -1
	}
	for idx, entry := range t.entries {
		if entry.Kind == EntryConfirmed && entry.Message.ID == id {
			return idx
		}
	}
	return -1
}

func (t *timeline) indexOfPending(tempId string) int {
	if len(tempId) == 0 {
		return -1
	}
	for idx, entry := range t.entries {
		if entry.Kind == EntryPending && entry.TempID == tempId {
			return idx
		}
	}
	return -1
}

func (t *timeline) appendPending(tempId string, msg wire.Message) {
	t.entries = append(t.entries, Entry{Kind: EntryPending, TempID: tempId, Message: msg})
}

func (t *timeline) removePending(tempId string) {
	if idx := t.indexOfPending(tempId); idx >= 0 {
		t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
	}
}

func (t *timeline) removeID(id uint) {
	if idx := t.indexOfID(id); idx >= 0 {
		t.entries = append(t.entries[:idx], t.entries[idx+1:]...)
	}
}

// confirm settles an optimistic entry against its authoritative message,
// keeping list position. When a broadcast already confirmed the ID, the
// leftover pending entry is dropped so the message never appears twice.
func (t *timeline) confirm(tempId string, msg wire.Message) {
	pendingIdx := t.indexOfPending(tempId)
	confirmedIdx := t.indexOfID(msg.ID)

	switch {
	case confirmedIdx >= 0 && pendingIdx >= 0:
		t.entries = append(t.entries[:pendingIdx], t.entries[pendingIdx+1:]...)
	case confirmedIdx >= 0:
		t.entries[confirmedIdx].Message = msg
	case pendingIdx >= 0:
		t.entries[pendingIdx] = Entry{Kind: EntryConfirmed, Message: msg}
	default:
		t.insertConfirmed(msg)
	}
}

// insertConfirmed places a message by server timestamp among the confirmed
// entries, always ahead of any pending ones. Confirmed order is never
// shuffled afterwards.
func (t *timeline) insertConfirmed(msg wire.Message) {
	at := len(t.entries)
	for idx, entry := range t.entries {
		if entry.Kind == EntryPending || (entry.Kind == EntryConfirmed && entry.Message.CreatedAt.After(msg.CreatedAt)) {
			at = idx
			break
		}
	}
	t.entries = append(t.entries, Entry{})
	copy(t.entries[at+1:], t.entries[at:])
	t.entries[at] = Entry{Kind: EntryConfirmed, Message: msg}
}

func (t *timeline) recomputeLast() {
	t.lastMessageId = 0
	var newest time.Time
	for _, entry := range t.entries {
		if entry.Kind != EntryConfirmed {
			continue
		}
		if t.lastMessageId == 0 || entry.Message.CreatedAt.After(newest) {
			t.lastMessageId = entry.Message.ID
			newest = entry.Message.CreatedAt
		}
	}
}
