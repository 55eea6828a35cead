package scoring

import "github.com/bdia-labs/gaia-bench/internal/gaia"

// CategoryBreakdown counts outcomes per response category.
type CategoryBreakdown struct {
	CorrectAsIs       int `json:"correct_as_is"`
	CorrectAfterSteps int `json:"correct_after_steps"`
	WrongAnswer       int `json:"wrong_answer"`
}

// Total returns the number of counted outcomes.
func (b CategoryBreakdown) Total() int {
	return b.CorrectAsIs + b.CorrectAfterSteps + b.WrongAnswer
}

// CategoryCounts tallies categories over rows matching the filters. An empty
// model matches every model; level 0 matches every level. Filters that match
// nothing yield an all-zero breakdown.
func CategoryCounts(rows []Outcome, model string, level int) CategoryBreakdown {
	var out CategoryBreakdown
	for _, row := range rows {
		if model != "" && row.Model != model {
			continue
		}
		if level != 0 && row.Level != level {
			continue
		}
		switch row.Category {
		case gaia.CategoryCorrectAsIs:
			out.CorrectAsIs++
		case gaia.CategoryCorrectAfterSteps:
			out.CorrectAfterSteps++
		case gaia.CategoryWrongAnswer:
			out.WrongAnswer++
		}
	}
	return out
}
