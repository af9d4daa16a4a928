// Package model defines the domain types used across the application.
package model

import "time"

// User is a Telegram account acting in a group.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
	IsBot     bool
}

// FullName returns the display name as Telegram renders it.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Chat identifies a group chat.
type Chat struct {
	ID    int64
	Title string
}

// DisplayTitle returns the chat title or a placeholder for untitled chats.
func (c Chat) DisplayTitle() string {
	if c.Title == "" {
		return "None"
	}
	return c.Title
}

// EventKind tags the kind of an incoming update.
type EventKind string

// Supported event kinds.
const (
	EventNewMessage    EventKind = "new_message"
	EventEditedMessage EventKind = "edited_message"
	EventMemberJoined  EventKind = "member_joined"
	EventOther         EventKind = "other"
)

// MediaKind names the payload type of a message.
type MediaKind string

// Known media kinds.
const (
	MediaText      MediaKind = "text"
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaDocument  MediaKind = "document"
	MediaAudio     MediaKind = "audio"
	MediaAnimation MediaKind = "animation"
	MediaVoice     MediaKind = "voice"
	MediaVideoNote MediaKind = "video_note"
	MediaSticker   MediaKind = "sticker"
	MediaLocation  MediaKind = "location"
	MediaVenue     MediaKind = "venue"
	MediaContact   MediaKind = "contact"
	MediaDice      MediaKind = "dice"
	MediaPoll      MediaKind = "poll"
	MediaGame      MediaKind = "game"
	MediaUnknown   MediaKind = "unknown"
)

// HasText reports whether messages of this kind can carry text or a caption.
// Kinds for which it returns false never yield a content surface and are not
// worth a log line. Service messages map to MediaUnknown.
func (k MediaKind) HasText() bool {
	switch k {
	case MediaSticker, MediaVideoNote, MediaLocation, MediaVenue, MediaContact, MediaDice, MediaUnknown:
		return false
	}
	return true
}

// EntityTextLink is the entity type for display text over a different URL.
const EntityTextLink = "text_link"

// Entity is a rich-text span of a message.
type Entity struct {
	Type   string
	Offset int
	Length int
	URL    string
}

// Forward describes where a forwarded message came from. Either field may be
// empty; a hidden forwarder only exposes SenderName.
type Forward struct {
	FromUser   *User
	FromChat   *Chat
	SenderName string
}

// Event is the platform-independent view of an update the moderator handles.
type Event struct {
	Kind       EventKind
	Chat       Chat
	MessageID  int
	Sender     *User
	Text       string
	Caption    string
	Media      MediaKind
	Forward    *Forward
	Entities   []Entity
	NewMembers []User
}

// IsCommand reports whether the message text is exactly cmd.
func (e Event) IsCommand(cmd string) bool {
	return e.Text == cmd
}

// SurfaceKind names the part of an event a text was taken from.
type SurfaceKind string

// Supported surface kinds.
const (
	SurfaceDisplayName        SurfaceKind = "display_name"
	SurfaceForwarderName      SurfaceKind = "forwarder_name"
	SurfaceForwardedChatTitle SurfaceKind = "forwarded_chat_title"
	SurfaceMessageBody        SurfaceKind = "message_body"
	SurfaceCaption            SurfaceKind = "caption"
	SurfaceLinkTarget         SurfaceKind = "link_target"
)

// Surface is a single piece of text an attacker controls.
type Surface struct {
	Kind SurfaceKind
	Text string
}

// Role is a member's live status in a chat.
type Role string

// Member roles.
const (
	RoleMember        Role = "member"
	RoleAdministrator Role = "administrator"
	RoleOwner         Role = "owner"
)

// Privileged reports whether the role is exempt from enforcement.
func (r Role) Privileged() bool {
	return r == RoleAdministrator || r == RoleOwner
}

// VerdictSource tells whether a verdict came from a rule or the classifier.
type VerdictSource string

// Verdict sources.
const (
	SourceRule       VerdictSource = "rule"
	SourceClassifier VerdictSource = "classifier"
)

// Action is one journaled enforcement run.
type Action struct {
	ID         int64
	ChatID     int64
	ChatTitle  string
	UserID     int64
	UserName   string
	MessageID  int
	Surface    SurfaceKind
	Source     VerdictSource
	Rule       string
	Normalized bool
	Deleted    bool
	Banned     bool
	Notified   bool
	Error      string
	CreatedAt  time.Time
}
