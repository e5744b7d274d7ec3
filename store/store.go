package store

import (
	"context"
	"time"

	"github.com/effective-security/xlog"
	"github.com/solchat-ai/solchat/pkg/llms"
)

var logger = xlog.NewPackageLogger("github.com/solchat-ai/solchat", "store")

// MessageStore persists the conversation history of a chat. The chat ID
// is carried by the context, see chatmodel.WithChatContext.
type MessageStore interface {
	Messages(ctx context.Context) []llms.Message
	Add(ctx context.Context, msg llms.Message) error
	Reset(ctx context.Context) error
}

// ChatInfo describes a stored chat.
type ChatInfo struct {
	ChatID    string         `json:"chat_id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Messages  []llms.Message `json:"messages,omitempty"`
}

// ChatStore manages chat metadata in addition to messages.
type ChatStore interface {
	MessageStore
	UpdateChat(ctx context.Context, title string, metadata map[string]any) error
	GetChatInfo(ctx context.Context, id string) (*ChatInfo, error)
	ListChats(ctx context.Context) ([]string, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (uint32, error)
}
