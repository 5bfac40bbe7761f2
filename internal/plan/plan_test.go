package plan

import "testing"

// TestNewHasAllSlots verifies an empty plan carries every weekday slot.
func TestNewHasAllSlots(t *testing.T) {
	p := New()
	if len(p.Days) != 7 {
		t.Fatalf("len(Days) = %d, want 7", len(p.Days))
	}
	for _, k := range Weekdays {
		d, ok := p.Days[k]
		if !ok {
			t.Errorf("missing slot %q", k)
			continue
		}
		if d.Key != k || len(d.Exercises) != 0 {
			t.Errorf("slot %q = %+v, want empty day keyed %q", k, d, k)
		}
	}
}

// TestOrderedDays returns slots in weekday order regardless of map order.
func TestOrderedDays(t *testing.T) {
	p := New()
	p.Days["friday"] = Day{Key: "friday", Exercises: []Exercise{{Name: "Press banca", Sets: 3}}}
	p.Days["monday"] = Day{Key: "monday", Exercises: []Exercise{{Name: "Sentadilla", Sets: 5}}}

	days := p.OrderedDays()
	if len(days) != 7 {
		t.Fatalf("len(OrderedDays()) = %d, want 7", len(days))
	}
	if days[0].Key != "monday" || days[4].Key != "friday" {
		t.Errorf("order = [%s ... %s], want monday first and friday fifth", days[0].Key, days[4].Key)
	}
	if p.ExerciseCount() != 2 {
		t.Errorf("ExerciseCount() = %d, want 2", p.ExerciseCount())
	}
}
