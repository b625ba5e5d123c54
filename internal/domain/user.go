package domain

import "time"

// User is an account that owns todos. Deleting a user cascades to every
// todo they own.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Todos []Todo `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
