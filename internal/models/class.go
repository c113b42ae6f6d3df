package models

import "time"

// Class is a course section taught by a single teacher. Students join via
// the invite code.
type Class struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Section    string    `gorm:"size:255;not null;uniqueIndex:idx_class_subject_section" json:"section"`
	Subject    string    `gorm:"size:255;not null;uniqueIndex:idx_class_subject_section" json:"subject"`
	TeacherID  uint      `gorm:"not null" json:"teacher_id"`
	InviteCode string    `gorm:"size:16;uniqueIndex;not null" json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Teacher     User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	Assignments []Assignment `json:"-"`
}

// ClassMembership links a student to a class they joined.
type ClassMembership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_membership_student_class" json:"student_id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_membership_student_class" json:"class_id"`
	CreatedAt time.Time `json:"created_at"`

	Student User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Class   Class `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
