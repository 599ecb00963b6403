package booking

import (
	"strings"

	"github.com/BruksfildServices01/counsel-console/internal/models"
)

// Notes is the post-session record. ProblemSummary and Guides are required
// before a booking can complete through the notes path.
type Notes struct {
	ProblemSummary  string `json:"problem_summary"`
	ProblemAnalysis string `json:"problem_analysis"`
	Guides          string `json:"guides"`
}

func NotesFromBooking(b *models.Booking) Notes {
	return Notes{
		ProblemSummary:  b.ProblemSummary,
		ProblemAnalysis: b.ProblemAnalysis,
		Guides:          b.Guides,
	}
}

func (n Notes) Normalize() Notes {
	return Notes{
		ProblemSummary:  strings.TrimSpace(n.ProblemSummary),
		ProblemAnalysis: strings.TrimSpace(n.ProblemAnalysis),
		Guides:          strings.TrimSpace(n.Guides),
	}
}

// MissingFields lists required fields that are empty or whitespace only.
func (n Notes) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(n.ProblemSummary) == "" {
		missing = append(missing, "problem_summary")
	}
	if strings.TrimSpace(n.Guides) == "" {
		missing = append(missing, "guides")
	}
	return missing
}

func (n Notes) Validate() error {
	if missing := n.MissingFields(); len(missing) > 0 {
		return ErrValidation(missing...)
	}
	return nil
}

func (n Notes) ApplyTo(b *models.Booking) {
	n = n.Normalize()
	b.ProblemSummary = n.ProblemSummary
	b.ProblemAnalysis = n.ProblemAnalysis
	b.Guides = n.Guides
}
