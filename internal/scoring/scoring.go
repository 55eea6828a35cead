// Package scoring aggregates recorded attempt outcomes into the per-model,
// per-level metrics shown on the dashboard.
package scoring

import (
	"sort"

	"github.com/bdia-labs/gaia-bench/internal/gaia"
)

// Outcome is one recorded attempt joined with its question's level.
type Outcome struct {
	TaskID   string
	Model    string
	Level    int
	Category gaia.Category
}

// LevelScore is the correctness percentage for one (model, level) cell.
type LevelScore struct {
	Level   int     `json:"level"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Score   float64 `json:"score"`
}

// ModelScore groups one model's level scores and their mean.
type ModelScore struct {
	Model   string             `json:"model"`
	Average float64            `json:"average_score"`
	Levels  map[int]LevelScore `json:"levels"`
}

// Report is the aggregate over every outcome passed to Aggregate.
type Report struct {
	models map[string]*ModelScore
}

// Aggregate groups outcomes by (model, level) and scores each cell as
// 100 * correct / total, where both correct categories count. A model's
// average is the mean of its level scores over levels that have data. Cells
// exist only when at least one outcome landed in them, so no division by
// zero can occur.
func Aggregate(rows []Outcome) *Report {
	type cell struct {
		correct int
		total   int
	}
	cells := make(map[string]map[int]*cell)
	for _, row := range rows {
		if !row.Category.Valid() {
			continue
		}
		byLevel := cells[row.Model]
		if byLevel == nil {
			byLevel = make(map[int]*cell)
			cells[row.Model] = byLevel
		}
		c := byLevel[row.Level]
		if c == nil {
			c = &cell{}
			byLevel[row.Level] = c
		}
		c.total++
		if row.Category.Correct() {
			c.correct++
		}
	}

	report := &Report{models: make(map[string]*ModelScore, len(cells))}
	for model, byLevel := range cells {
		ms := &ModelScore{
			Model:  model,
			Levels: make(map[int]LevelScore, len(byLevel)),
		}
		var sum float64
		for level, c := range byLevel {
			score := 100 * float64(c.correct) / float64(c.total)
			ms.Levels[level] = LevelScore{Level: level, Correct: c.correct, Total: c.total, Score: score}
			sum += score
		}
		ms.Average = sum / float64(len(byLevel))
		report.models[model] = ms
	}
	return report
}

// Models returns the scored model names in lexical order.
func (r *Report) Models() []string {
	if r == nil || len(r.models) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.models))
	for model := range r.models {
		out = append(out, model)
	}
	sort.Strings(out)
	return out
}

// Model returns the score block for one model.
func (r *Report) Model(model string) (ModelScore, bool) {
	if r == nil {
		return ModelScore{}, false
	}
	ms, ok := r.models[model]
	if !ok {
		return ModelScore{}, false
	}
	return *ms, true
}

// Level returns one (model, level) cell. ok is false when that pair has no
// recorded attempts; callers display such cells as zero.
func (r *Report) Level(model string, level int) (LevelScore, bool) {
	if r == nil {
		return LevelScore{}, false
	}
	ms, ok := r.models[model]
	if !ok {
		return LevelScore{}, false
	}
	ls, ok := ms.Levels[level]
	return ls, ok
}

// AverageScore returns the mean of a model's level scores over levels with
// data, or 0 when the model has no recorded attempts at all.
func (r *Report) AverageScore(model string) float64 {
	if r == nil {
		return 0
	}
	ms, ok := r.models[model]
	if !ok {
		return 0
	}
	return ms.Average
}

// Levels returns every level observed across all models, sorted ascending.
func (r *Report) Levels() []int {
	if r == nil {
		return nil
	}
	seen := make(map[int]bool)
	for _, ms := range r.models {
		for level := range ms.Levels {
			seen[level] = true
		}
	}
	out := make([]int, 0, len(seen))
	for level := range seen {
		out = append(out, level)
	}
	sort.Ints(out)
	return out
}
