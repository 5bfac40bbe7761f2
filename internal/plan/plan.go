// Package plan holds the canonical weekly routine that commits write
// into storage. The plan is flat per day; block grouping survives as
// per-exercise metadata so the editor can re-render circuits and
// supersets without re-parsing anything.
package plan

// Weekdays is the canonical slot order of a weekly plan.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Exercise is one committed exercise slot.
type Exercise struct {
	Position    int    `json:"position"`
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	RepsMin     *int   `json:"reps_min,omitempty"`
	RepsMax     *int   `json:"reps_max,omitempty"`
	RepsList    []int  `json:"reps_list,omitempty"`
	SpecialReps string `json:"special_reps,omitempty"`
	Note        string `json:"note,omitempty"`
	// Group metadata: kind mirrors the draft block ("single", "superset",
	// "circuit", "unknown") and index numbers the blocks within the day.
	GroupKind  string `json:"group_kind"`
	GroupIndex int    `json:"group_index"`
}

// Day is one weekday slot.
type Day struct {
	Key       string     `json:"key"`
	Exercises []Exercise `json:"exercises"`
}

// WeeklyPlan is the commit payload. Version is the optimistic-concurrency
// token: a commit only applies when the stored routine still carries the
// version the commit was prepared against.
type WeeklyPlan struct {
	Version int64          `json:"version"`
	Days    map[string]Day `json:"days"`
}

// New returns an empty plan with every weekday slot present.
func New() *WeeklyPlan {
	p := &WeeklyPlan{Days: make(map[string]Day, len(Weekdays))}
	for _, k := range Weekdays {
		p.Days[k] = Day{Key: k}
	}
	return p
}

// ExerciseCount returns the total exercises across all slots.
func (p *WeeklyPlan) ExerciseCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Exercises)
	}
	return n
}

// OrderedDays returns the plan days in weekday order.
func (p *WeeklyPlan) OrderedDays() []Day {
	out := make([]Day, 0, len(Weekdays))
	for _, k := range Weekdays {
		if d, ok := p.Days[k]; ok {
			out = append(out, d)
		}
	}
	return out
}
