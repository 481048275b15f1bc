package models

import "time"

// User represents a blog author. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	FirstName    string    `gorm:"size:64;not null" json:"first_name" bson:"first_name"`
	LastName     string    `gorm:"size:64;not null" json:"last_name" bson:"last_name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email" bson:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// DisplayName is the author name stamped on posts.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}
