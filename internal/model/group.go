package model

import "time"

// GroupChat represents a reading group discussion room as stored in the
// `group_chats` table.  Every realtime room maps 1:1 to a row here.
//
// Fields:
//  ID        – primary key identifier; its decimal form is the room id used
//              on the realtime gateway.
//  Name      – display name of the group.
//  BookTitle – the book the group is reading (optional, may be empty).
//  CreatedBy – user who created the group.
//  CreatedAt – timestamp of creation.
type GroupChat struct {
    ID        uint64    // group_chats.id
    Name      string    // group_chats.name
    BookTitle string    // group_chats.book_title
    CreatedBy uint64    // group_chats.created_by
    CreatedAt time.Time // group_chats.created_at
}

// GroupMember models a row in the `group_chat_members` table.  A membership
// row is the sole authority for whether a user may join the corresponding
// realtime room or post into it.
type GroupMember struct {
    ID       uint64    // group_chat_members.id
    GroupID  uint64    // group_chat_members.group_id
    UserID   uint64    // group_chat_members.user_id
    JoinedAt time.Time // group_chat_members.joined_at
}

// Message models a row in the `group_messages` table.  Messages are written
// by the realtime gateway, never directly by clients, so SenderID always
// reflects the authenticated connection identity.  The json tags are present
// because the persisted record is broadcast verbatim as the `new-message`
// payload and returned from the history endpoint.
type Message struct {
    ID        uint64    `json:"id"`         // group_messages.id
    GroupID   uint64    `json:"group_id"`   // group_messages.group_id
    SenderID  uint64    `json:"sender_id"`  // group_messages.sender_id
    Content   string    `json:"content"`    // group_messages.content
    CreatedAt time.Time `json:"created_at"` // group_messages.created_at
}
