package models

import "time"

// AcademicYear groups classes and semesters (e.g. "2024-2025").
type AcademicYear struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:32;not null;uniqueIndex"`
	Active    bool   `gorm:"default:false"`
}

// Class is a teaching group within a year. Code is unique per year so
// classes can be promoted into the next year without renaming.
type Class struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string       `gorm:"size:128;not null"`
	Code           string       `gorm:"size:32;not null;uniqueIndex:idx_class_code_year"`
	Level          string       `gorm:"size:32"`
	AcademicYearID uint         `gorm:"not null;index;uniqueIndex:idx_class_code_year"`
	AcademicYear   AcademicYear `gorm:"foreignKey:AcademicYearID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Course is taught to one class, optionally pinned to a semester.
type Course struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Title      string `gorm:"size:255;not null"`
	Code       string `gorm:"size:32"`
	ClassID    uint   `gorm:"not null;index"`
	Class      Class  `gorm:"foreignKey:ClassID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SemesterID *uint  `gorm:"index"`
}

// Semester is a grading period within an academic year.
type Semester struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string       `gorm:"size:64;not null"`
	AcademicYearID uint         `gorm:"not null;index"`
	AcademicYear   AcademicYear `gorm:"foreignKey:AcademicYearID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	StartDate      time.Time
	EndDate        time.Time
}
