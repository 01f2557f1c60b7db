// Package queue contains the background consumer that listens to the
// message.created queue and writes structured logs to logs/messages.log.
package queue

// MessageCreatedEvent is published after a group message has been persisted
// and broadcast.  Consumers must tolerate unknown fields so the producer can
// grow the payload.
type MessageCreatedEvent struct {
	MessageID uint64 `json:"message_id"`
	GroupID   uint64 `json:"group_id"`
	SenderID  uint64 `json:"sender_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"` // RFC3339
}
