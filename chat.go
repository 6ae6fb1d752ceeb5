package main

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	chatHistorySize   = 100
	chatMaxContentLen = 200
)

// ChatMessage is a single chat entry, kept both per room and in the global
// history.
type ChatMessage struct {
	ID         string    `json:"id"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Content    string    `json:"content"`
	RoomID     string    `json:"roomId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatLog keeps bounded chat history. Old entries fall off the front once a
// ring exceeds chatHistorySize.
type ChatLog struct {
	mu     sync.RWMutex
	global []ChatMessage
	byRoom map[string][]ChatMessage
}

func NewChatLog() *ChatLog {
	return &ChatLog{byRoom: make(map[string][]ChatMessage)}
}

// Add validates and records a message, returning the stored entry. Empty
// content is rejected; overlong content is truncated.
func (c *ChatLog) Add(roomID, playerID, playerName, content string) (ChatMessage, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return ChatMessage{}, false
	}
	content = truncateUTF8(content, chatMaxContentLen)
	msg := ChatMessage{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		PlayerName: playerName,
		Content:    content,
		RoomID:     roomID,
		Timestamp:  time.Now(),
	}

	c.mu.Lock()
	c.global = appendBounded(c.global, msg)
	if roomID != "" {
		c.byRoom[roomID] = appendBounded(c.byRoom[roomID], msg)
	}
	c.mu.Unlock()
	return msg, true
}

func appendBounded(history []ChatMessage, msg ChatMessage) []ChatMessage {
	history = append(history, msg)
	if len(history) > chatHistorySize {
		history = history[len(history)-chatHistorySize:]
	}
	return history
}

// History returns a copy of a room's messages, oldest first.
func (c *ChatLog) History(roomID string) []ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]ChatMessage(nil), c.byRoom[roomID]...)
}

// GlobalHistory returns a copy of all recent messages, oldest first.
func (c *ChatLog) GlobalHistory() []ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]ChatMessage(nil), c.global...)
}

// DropRoom discards a room's history once the room is gone.
func (c *ChatLog) DropRoom(roomID string) {
	c.mu.Lock()
	delete(c.byRoom, roomID)
	c.mu.Unlock()
}

// truncateUTF8 shortens s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
