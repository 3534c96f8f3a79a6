package main

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"
)

type SortMode string

const (
	SortByNo    SortMode = "no"
	SortByScore SortMode = "score"
)

// Filters are the current selections of the filter controls. A nil Year or Exam means "ALL".
type Filters struct {
	Year         *int
	Exam         *int
	OnlyReviewed bool
	OnlyWrong    bool
	Sort         SortMode
}

// ParseFilters maps raw control values onto Filters. Anything unparseable falls back to "ALL" / "no".
func ParseFilters(year, exam, sortMode, onlyReviewed, onlyWrong string) Filters {
	f := Filters{
		Year:         parseSelector(year),
		Exam:         parseSelector(exam),
		OnlyReviewed: parseToggle(onlyReviewed),
		OnlyWrong:    parseToggle(onlyWrong),
		Sort:         SortByNo,
	}
	if SortMode(sortMode) == SortByScore {
		f.Sort = SortByScore
	}
	return f
}

func parseSelector(v string) *int {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "ALL") {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func parseToggle(v string) bool {
	if strings.EqualFold(v, "on") {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// ReviewReader is the read side of the review-state store.
type ReviewReader interface {
	Get(id string) ReviewState
}

// AnswerKeyLookup resolves the 0-based correct choice of a question.
type AnswerKeyLookup interface {
	CorrectIndex(id string) (int, bool)
}

/*** Query engine ***/

// SelectAndOrder filters and sorts a copy of questions. Neither questions nor review are modified.
func SelectAndOrder(questions []Question, f Filters, review ReviewReader) []Question {
	out := make([]Question, 0, len(questions))
	tally := make(map[string]int, len(questions))
	for _, q := range questions {
		if f.Year != nil && q.Year != *f.Year {
			continue
		}
		if f.Exam != nil && q.Exam != *f.Exam {
			continue
		}
		s := review.Get(q.ID)
		t := ReviewTally(s)
		if f.OnlyReviewed && t == 0 {
			continue
		}
		if f.OnlyWrong && !s.Wrong {
			continue
		}
		tally[q.ID] = t
		out = append(out, q)
	}

	sort.SliceStable(out, func(i, j int) bool {
		x, y := out[i], out[j]
		if f.Sort == SortByScore && tally[x.ID] != tally[y.ID] {
			return tally[x.ID] > tally[y.ID]
		}
		if x.Exam != y.Exam {
			return x.Exam > y.Exam
		}
		if x.No != y.No {
			return x.No < y.No
		}
		// only reached by a malformed bank with duplicate (exam, no)
		return x.ID < y.ID
	})
	return out
}

/*** Scoring ***/

// ReviewTally counts the review flags set on s (0..3).
func ReviewTally(s ReviewState) int {
	n := 0
	for _, f := range []bool{s.A, s.B, s.C} {
		if f {
			n++
		}
	}
	return n
}

// GradeOutcome reports whether the selection is wrong, or nil when it cannot be graded.
func GradeOutcome(sel *int, correct int, known bool) *bool {
	if sel == nil || !known {
		return nil
	}
	return boolPtr(*sel != correct)
}

type Stats struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Percent is round(100*correct/total); ok is false when there is nothing to divide by.
func (s Stats) Percent() (int, bool) {
	if s.Total == 0 {
		return 0, false
	}
	return int(math.Round(100 * float64(s.Correct) / float64(s.Total))), true
}

func (s Stats) Label() string {
	p, ok := s.Percent()
	if !ok {
		return "—"
	}
	return fmt.Sprintf("%d/%d (%d%%)", s.Correct, s.Total, p)
}

// AggregateStats counts every question toward Total and the ones whose selection
// matches a known correct choice toward Correct.
func AggregateStats(questions []Question, review ReviewReader, keys AnswerKeyLookup) Stats {
	var st Stats
	for _, q := range questions {
		st.Total++
		sel := review.Get(q.ID).Sel
		correct, known := keys.CorrectIndex(q.ID)
		if sel != nil && known && *sel == correct {
			st.Correct++
		}
	}
	return st
}

// StatsByExam aggregates over the questions of one exam sitting.
func StatsByExam(questions []Question, exam int, review ReviewReader, keys AnswerKeyLookup) Stats {
	subset := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.Exam == exam {
			subset = append(subset, q)
		}
	}
	return AggregateStats(subset, review, keys)
}

// drawQuestions returns count ids chosen uniformly at random; a seed makes the draw reproducible.
func drawQuestions(allIDs []string, count int, seed *int64) []string {
	var r *rand.Rand
	if seed != nil {
		r = rand.New(rand.NewSource(*seed))
	} else {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	out := append([]string(nil), allIDs...)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if count > len(out) {
		count = len(out)
	}
	return out[:count]
}
