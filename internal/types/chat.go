package types

import (
	"time"
)

// Category is the request classification used to select a provider and credential.
type Category string

const (
	CategoryText   Category = "text"
	CategoryImage  Category = "image"
	CategoryVoice  Category = "voice"
	CategoryCoding Category = "coding"
)

// Categories lists every request category in a fixed order.
var Categories = []Category{CategoryText, CategoryImage, CategoryVoice, CategoryCoding}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryText, CategoryImage, CategoryVoice, CategoryCoding:
		return true
	}
	return false
}

// Role identifies the sender of a message entry.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// MessageKind classifies the payload of a message entry.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindVoice MessageKind = "voice"
	KindError MessageKind = "error"
)

// MediaKind classifies a captured or uploaded media asset.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVoice MediaKind = "voice"
)

// Language is a UI language preference.
type Language string

const (
	LangEnglish    Language = "en"
	LangSpanish    Language = "es"
	LangFrench     Language = "fr"
	LangPortuguese Language = "pt"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case LangEnglish, LangSpanish, LangFrench, LangPortuguese:
		return true
	}
	return false
}

// Chat is one user-visible conversation thread.
type Chat struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessageEntry is one turn (user or bot) in a chat's history.
// Entries are immutable once created; history order is append order.
type MessageEntry struct {
	ChatID    string      `json:"chat_id"`
	Role      Role        `json:"role"`
	Kind      MessageKind `json:"kind"`
	Payload   string      `json:"payload"` // text, or a URI for image/voice kinds
	Timestamp time.Time   `json:"timestamp"`
}

// MediaAsset is a captured or uploaded photo or voice recording attached to a chat.
// Data holds the content bytes base64-encoded so the asset serializes portably.
type MediaAsset struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Kind      MediaKind `json:"kind"`
	Data      string    `json:"data"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistory is a chat's persisted message history plus its media list.
type ChatHistory struct {
	ChatID   string         `json:"chat_id"`
	Messages []MessageEntry `json:"messages"`
	Media    []MediaAsset   `json:"media"`
}

// Credentials maps a category to an opaque provider secret.
// An absent entry means the category is unconfigured.
type Credentials map[Category]string
