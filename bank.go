package main

import (
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Bank is the immutable in-memory question bank plus its answer key.
type Bank struct {
	questions []Question
	byID      map[string]int
	keys      map[string]AnswerKey
}

func NewBank(questions []Question, keys []AnswerKey) *Bank {
	b := &Bank{
		questions: questions,
		byID:      make(map[string]int, len(questions)),
		keys:      make(map[string]AnswerKey, len(keys)),
	}
	for i, q := range questions {
		b.byID[q.ID] = i
	}
	for _, k := range keys {
		b.keys[k.QuestionID] = k
	}
	return b
}

// LoadBank reads the whole bank once; it is never written afterwards.
func LoadBank(db *gorm.DB) (*Bank, error) {
	var qs []Question
	if err := db.Preload("Choices", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Order("exam DESC, no ASC").Find(&qs).Error; err != nil {
		return nil, err
	}
	var keys []AnswerKey
	if err := db.Find(&keys).Error; err != nil {
		return nil, err
	}
	return NewBank(qs, keys), nil
}

// Questions returns the bank in default display order (exam desc, no asc).
// Callers must treat it as read-only.
func (b *Bank) Questions() []Question { return b.questions }

func (b *Bank) Question(id string) (Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[i], true
}

func (b *Bank) Key(id string) (AnswerKey, bool) {
	k, ok := b.keys[id]
	return k, ok
}

// CorrectIndex returns the 0-based correct choice for id, if one is known.
func (b *Bank) CorrectIndex(id string) (int, bool) {
	k, ok := b.keys[id]
	if !ok {
		return 0, false
	}
	return k.CorrectIndex()
}

// CorrectIndex parses the 1-based answer text. Absent, non-numeric or non-positive answers are unknown.
func (k AnswerKey) CorrectIndex() (int, bool) {
	if k.Answer == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(*k.Answer))
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Years lists the distinct years, newest first.
func (b *Bank) Years() []int {
	return distinctDesc(b.questions, func(q Question) int { return q.Year })
}

// Exams lists the distinct exam sittings, newest first.
func (b *Bank) Exams() []int {
	return distinctDesc(b.questions, func(q Question) int { return q.Exam })
}

func distinctDesc(qs []Question, field func(Question) int) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, q := range qs {
		v := field(q)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
