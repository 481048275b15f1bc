package models

import "time"

// Post lifecycle states.
const (
	StateDraft     = "draft"
	StatePublished = "published"
)

// ValidState reports whether s is one of the two post states.
func ValidState(s string) bool {
	return s == StateDraft || s == StatePublished
}

// Post represents a blog post. Tags are persisted in PostTag rows by the
// relational stores and as an array field by MongoDB.
type Post struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Title          string    `gorm:"size:100;not null;index" json:"title" bson:"title"`
	Description    string    `gorm:"size:255;not null" json:"description" bson:"description"`
	Tags           []string  `gorm:"-" json:"tags" bson:"tags"`
	Author         string    `gorm:"size:130;not null;index" json:"author" bson:"author"`
	AuthorID       string    `gorm:"size:36;not null;index" json:"author_id" bson:"author_id"`
	State          string    `gorm:"size:16;not null;default:draft;index" json:"state" bson:"state"`
	ReadCount      int64     `gorm:"not null;default:0" json:"read_count" bson:"read_count"`
	ReadingTime    string    `gorm:"size:32;not null" json:"reading_time" bson:"reading_time"`
	ReadingMinutes int       `gorm:"not null;default:0" json:"-" bson:"reading_minutes"`
	Body           string    `gorm:"type:text;not null" json:"body" bson:"body"`
	CreatedAt      time.Time `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
	TagRows        []PostTag `gorm:"foreignKey:PostID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-" bson:"-"`
}

// PostTag stores one tag of a post at its position in the tag list.
type PostTag struct {
	PostID   string `gorm:"primaryKey;size:36"`
	Position int    `gorm:"primaryKey"`
	Tag      string `gorm:"size:64;not null;index"`
}
