// Package model 包含了应用的数据模型定义。
package model

import "time"

// MessageType 区分对话中的发言方。
type MessageType string

const (
	MessageTypeUser MessageType = "user"
	MessageTypeBot  MessageType = "bot"
)

// SessionMessage 代表会话历史中的单条消息。
type SessionMessage struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Passages  []ScoredPassage `json:"passages,omitempty"`
}

// SessionHistory 是按对话顺序排列的消息序列。
type SessionHistory []SessionMessage

// ChatReply 是一轮问答的返回结果。
type ChatReply struct {
	Response string          `json:"response"`
	Passages []ScoredPassage `json:"passages"`
}
