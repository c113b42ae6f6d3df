package models

import "time"

// Role values assignable to a user account.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User represents an authenticated account: a teacher owning classes or a
// student enrolled in them.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsTeacher reports whether the account carries the teacher role.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
