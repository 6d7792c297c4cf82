package models

import "time"

// User is a student or administrator account. Students carry the
// matricule printed on their card; card login looks them up by it.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Email          string     `gorm:"size:255;not null;uniqueIndex"`
	Matricule      string     `gorm:"size:16;uniqueIndex"`
	FirstName      string     `gorm:"size:255;not null"`
	LastName       string     `gorm:"size:255;not null"`
	HashedPassword []byte     `gorm:"not null"`
	Role           string     `gorm:"size:16;not null;default:STUDENT"` // STUDENT or ADMIN
	ClassID        *uint      `gorm:"index"`
	Class          *Class     `gorm:"foreignKey:ClassID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

// FullName is the concatenated form compared against card scans.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
