package main

import (
	"time"
)

// --- User ---

// User is the anonymous browser identity; its PublicID namespaces the stored review state.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	PublicID  string `gorm:"uniqueIndex;size:36;not null"` // UUID kept in the cookie
	CreatedAt time.Time
	UpdatedAt time.Time
}

// --- Question bank (read-only after seeding) ---

type Question struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Year      int       `gorm:"index;not null" json:"year"`
	Exam      int       `gorm:"index;not null" json:"exam"`
	No        int       `gorm:"not null" json:"no"`
	Text      string    `gorm:"not null" json:"question"`
	Choices   []Choice  `json:"choices"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type Choice struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	QuestionID string `gorm:"index;not null" json:"-"`
	Position   int    `gorm:"not null" json:"position"` // 0-based
	Text       string `gorm:"not null" json:"text"`
}

// AnswerKey holds the correct choice (1-based, as text) and the explanation for one question.
// Either field may be absent.
type AnswerKey struct {
	QuestionID  string  `gorm:"primaryKey;size:64" json:"-"`
	Answer      *string `json:"answer,omitempty"`
	Explanation *string `json:"explanation,omitempty"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// --- Key-value persistence ---

type KVEntry struct {
	Namespace string `gorm:"primaryKey;size:36"`
	Key       string `gorm:"primaryKey;column:entry_key;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
