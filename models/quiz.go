package models

import "time"

// Question belongs to a course. MCQ questions carry their choices;
// OPEN questions are graded by hand and carry none.
type Question struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	CourseID  uint     `gorm:"not null;index"`
	Course    Course   `gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Text      string   `gorm:"type:text;not null"`
	Type      string   `gorm:"size:16;not null;default:MCQ"` // MCQ or OPEN
	Points    int      `gorm:"not null;default:1"`
	Choices   []Choice `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type Choice struct {
	ID         uint   `gorm:"primaryKey"`
	QuestionID uint   `gorm:"not null;index"`
	Text       string `gorm:"size:512;not null"`
	Correct    bool   `gorm:"default:false"`
}

// Quiz is an assembled evaluation over a course's questions.
type Quiz struct {
	ID              uint `gorm:"primaryKey"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Title           string `gorm:"size:255;not null"`
	CourseID        uint   `gorm:"not null;index"`
	Course          Course `gorm:"foreignKey:CourseID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SemesterID      *uint  `gorm:"index"`
	Status          string `gorm:"size:16;not null;default:DRAFT"` // DRAFT, PUBLISHED, EXPIRED
	DurationMinutes int    `gorm:"default:30"`
	StartAt         *time.Time
	EndAt           *time.Time
	Questions       []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// QuizQuestion orders a question inside a quiz.
type QuizQuestion struct {
	ID         uint     `gorm:"primaryKey"`
	QuizID     uint     `gorm:"not null;uniqueIndex:idx_quiz_question"`
	QuestionID uint     `gorm:"not null;uniqueIndex:idx_quiz_question"`
	Question   Question `gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Position   int      `gorm:"not null;default:0"`
}
