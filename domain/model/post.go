package model

import "time"

const VisibilityPublic = "PUBLIC"

// PostPayload is built per publish call and never persisted.
type PostPayload struct {
	Author     string
	Text       string
	MediaRef   string
	MediaKind  MediaKind
	Visibility string
	// Category is provider specific (LinkedIn share media category, YouTube category id).
	Category string
	Title    string
}

type PostResult struct {
	Success  bool   `json:"success"`
	PostID   string `json:"postId"`
	Provider string `json:"provider"`
}

// PostRecord is the history row written after a successful publish. It never holds credentials.
type PostRecord struct {
	ID         int64     `json:"id"          bson:"-"            gorm:"primaryKey;autoIncrement"`
	Provider   string    `json:"provider"    bson:"provider"     gorm:"size:32;index:idx_post_history_actor,priority:1"`
	ActorID    string    `json:"actor_id"    bson:"actor_id"     gorm:"size:255;index:idx_post_history_actor,priority:2"`
	SessionID  string    `json:"-"           bson:"session_id"   gorm:"size:64"`
	PostID     string    `json:"post_id"     bson:"post_id"      gorm:"size:255"`
	MediaKind  string    `json:"media_kind"  bson:"media_kind"   gorm:"size:16"`
	TextLength int       `json:"text_length" bson:"text_length"`
	CreatedAt  time.Time `json:"created_at"  bson:"created_at"   gorm:"autoCreateTime;index"`
}

func (PostRecord) TableName() string { return "post_history" }

const EventPostPublished = "post_published"

// PostEvent is broadcast to the configured sinks after a publish succeeds.
type PostEvent struct {
	Type      string    `json:"type"`
	Provider  string    `json:"provider"`
	SessionID string    `json:"-"`
	ActorID   string    `json:"actor_id"`
	PostID    string    `json:"post_id"`
	MediaKind string    `json:"media_kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
