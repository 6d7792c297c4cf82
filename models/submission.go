package models

import "time"

// Submission is one student's answer sheet for a quiz. A student submits
// each quiz at most once.
type Submission struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	QuizID      uint `gorm:"not null;uniqueIndex:idx_user_quiz"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_user_quiz"`
	Score       int  `gorm:"not null"`
	MaxScore    int  `gorm:"not null"`
	SubmittedAt time.Time          `gorm:"not null"`
	Answers     []SubmissionAnswer `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

type SubmissionAnswer struct {
	ID           uint   `gorm:"primaryKey"`
	SubmissionID uint   `gorm:"not null;index"`
	QuestionID   uint   `gorm:"not null"`
	ChoiceID     *uint  // nil for OPEN questions
	TextAnswer   string `gorm:"size:2048"`
	Correct      bool   `gorm:"default:false"`
}
