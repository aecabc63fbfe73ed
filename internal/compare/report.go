package compare

import (
	"fmt"
	"time"

	"github.com/upgrades-migrations/preupgrade-assistant-sub001/internal/models"
)

// ResultRef identifies one side of a comparison
type ResultRef struct {
	ID       string          `json:"id"`
	Hostname string          `json:"hostname"`
	Finished time.Time       `json:"finished"`
	Counters models.Counters `json:"counters"`
}

// Summary holds aggregate counts for a comparison
type Summary struct {
	LeftTotal   int `json:"left_total"`
	RightTotal  int `json:"right_total"`
	LeftOnly    int `json:"left_only"`
	RightOnly   int `json:"right_only"`
	Mismatches  int `json:"mismatches"`
	Discrepancy int `json:"discrepancies"`

	// Transitions counts mismatches by "left→right" state pair
	Transitions map[string]int `json:"transitions"`

	LeftDuplicates  []string `json:"left_duplicates,omitempty"`
	RightDuplicates []string `json:"right_duplicates,omitempty"`
}

// Report is the structured output of a comparison
type Report struct {
	Left          ResultRef     `json:"left"`
	Right         ResultRef     `json:"right"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	Summary       Summary       `json:"summary"`
}

// Identical reports whether no discrepancy was found
func (r *Report) Identical() bool {
	return len(r.Discrepancies) == 0
}

// NewReport compares left and right and summarizes the outcome
func NewReport(left, right *models.Result) (*Report, error) {
	ds, err := Compare(left, right)
	if err != nil {
		return nil, err
	}
	if ds == nil {
		ds = []Discrepancy{}
	}

	summary := Summary{
		LeftTotal:   len(left.Tests),
		RightTotal:  len(right.Tests),
		Discrepancy: len(ds),
		Transitions: map[string]int{},
	}
	for _, d := range ds {
		switch d.Kind {
		case LeftOnly:
			summary.LeftOnly++
		case RightOnly:
			summary.RightOnly++
		case Mismatch:
			summary.Mismatches++
			summary.Transitions[TransitionKey(d.LeftState(), d.RightState())]++
		}
	}
	for _, dup := range Duplicates(left) {
		summary.LeftDuplicates = append(summary.LeftDuplicates, dup.IDRef)
	}
	for _, dup := range Duplicates(right) {
		summary.RightDuplicates = append(summary.RightDuplicates, dup.IDRef)
	}

	return &Report{
		Left:          refOf(left),
		Right:         refOf(right),
		Discrepancies: ds,
		Summary:       summary,
	}, nil
}

// TransitionKey formats a state pair for the transitions table
func TransitionKey(from, to models.State) string {
	return fmt.Sprintf("%s→%s", from, to)
}

func refOf(r *models.Result) ResultRef {
	return ResultRef{
		ID:       r.ID,
		Hostname: r.Hostname,
		Finished: r.Finished,
		Counters: r.Counters,
	}
}
