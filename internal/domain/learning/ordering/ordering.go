// Package ordering plans position changes for the modules of a course.
//
// Every structural edit is expressed as a Plan: a short list of range shifts
// plus the final placement of the module being edited. Plans are pure values;
// the repository layer applies them as filtered range updates inside the
// caller's transaction, which keeps positions in each course exactly 1..N.
package ordering

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Range is an inclusive window of positions. To == 0 leaves it open above.
type Range struct {
	From int
	To   int
}

func (r Range) Contains(p int) bool {
	if p < r.From {
		return false
	}
	return r.To == 0 || p <= r.To
}

// Shift adds Delta to every module position of CourseID that falls in Range.
type Shift struct {
	CourseID uuid.UUID
	Range    Range
	Delta    int
}

// Placement is where the edited module ends up after the shifts ran.
type Placement struct {
	CourseID uuid.UUID
	Position int
}

type Plan struct {
	Shifts    []Shift
	Placement Placement
}

// Noop reports whether applying the plan changes nothing beyond the placement.
func (p Plan) Noop() bool { return len(p.Shifts) == 0 }

func Clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PlanInsert places a new module into a course that currently holds count
// modules. Without a requested position the module goes after maxPosition;
// otherwise the request is clamped to [1, count+1] and the tail makes room.
func PlanInsert(courseID uuid.UUID, count, maxPosition int, requested *int) Plan {
	if requested == nil {
		if maxPosition < 0 {
			maxPosition = 0
		}
		return Plan{Placement: Placement{CourseID: courseID, Position: maxPosition + 1}}
	}
	pos := Clamp(*requested, 1, count+1)
	plan := Plan{Placement: Placement{CourseID: courseID, Position: pos}}
	if pos <= count {
		plan.Shifts = append(plan.Shifts, Shift{CourseID: courseID, Range: Range{From: pos}, Delta: 1})
	}
	return plan
}

// Move describes a module leaving (SourceCourseID, CurrentPosition).
// SourceCount includes the moving module. TargetCount is only read for
// cross-course moves and excludes it.
type Move struct {
	SourceCourseID  uuid.UUID
	CurrentPosition int
	SourceCount     int

	TargetCourseID uuid.UUID
	TargetPosition int
	TargetCount    int
}

func (m Move) CrossCourse() bool {
	return m.TargetCourseID != uuid.Nil && m.TargetCourseID != m.SourceCourseID
}

// PlanMove computes the shifts for a same-course or cross-course move.
// Same-course targets clamp to [1, SourceCount]; cross-course targets clamp
// to [1, TargetCount+1].
func PlanMove(m Move) Plan {
	cur := m.CurrentPosition
	if !m.CrossCourse() {
		target := Clamp(m.TargetPosition, 1, m.SourceCount)
		plan := Plan{Placement: Placement{CourseID: m.SourceCourseID, Position: target}}
		switch {
		case target > cur:
			plan.Shifts = append(plan.Shifts, Shift{CourseID: m.SourceCourseID, Range: Range{From: cur + 1, To: target}, Delta: -1})
		case target < cur:
			plan.Shifts = append(plan.Shifts, Shift{CourseID: m.SourceCourseID, Range: Range{From: target, To: cur - 1}, Delta: 1})
		}
		return plan
	}

	target := Clamp(m.TargetPosition, 1, m.TargetCount+1)
	plan := Plan{Placement: Placement{CourseID: m.TargetCourseID, Position: target}}
	if target <= m.TargetCount {
		plan.Shifts = append(plan.Shifts, Shift{CourseID: m.TargetCourseID, Range: Range{From: target}, Delta: 1})
	}
	if cur < m.SourceCount {
		plan.Shifts = append(plan.Shifts, Shift{CourseID: m.SourceCourseID, Range: Range{From: cur + 1}, Delta: -1})
	}
	return plan
}

// PlanRemove closes the gap left by the module at position in a course of count modules.
func PlanRemove(courseID uuid.UUID, position, count int) Plan {
	plan := Plan{Placement: Placement{CourseID: courseID, Position: 0}}
	if position < count {
		plan.Shifts = append(plan.Shifts, Shift{CourseID: courseID, Range: Range{From: position + 1}, Delta: -1})
	}
	return plan
}

// Violation describes how a course's positions deviate from 1..N.
type Violation struct {
	Count      int
	Missing    []int
	Duplicates []int
	OutOfRange []int
}

func (v *Violation) Error() string {
	return fmt.Sprintf("positions are not contiguous (count=%d missing=%v duplicates=%v out_of_range=%v)",
		v.Count, v.Missing, v.Duplicates, v.OutOfRange)
}

// Verify checks that positions are exactly {1..len(positions)} in any order.
// It returns a *Violation when they are not.
func Verify(positions []int) error {
	n := len(positions)
	seen := make(map[int]int, n)
	v := &Violation{Count: n}
	for _, p := range positions {
		if p < 1 || p > n {
			v.OutOfRange = append(v.OutOfRange, p)
			continue
		}
		seen[p]++
		if seen[p] == 2 {
			v.Duplicates = append(v.Duplicates, p)
		}
	}
	for p := 1; p <= n; p++ {
		if seen[p] == 0 {
			v.Missing = append(v.Missing, p)
		}
	}
	if len(v.Missing) == 0 && len(v.Duplicates) == 0 && len(v.OutOfRange) == 0 {
		return nil
	}
	sort.Ints(v.Duplicates)
	sort.Ints(v.OutOfRange)
	return v
}
