package ordering

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// board is an in-memory course layout used to replay plans.
type board struct {
	pos map[string]Placement
}

func newBoard() *board { return &board{pos: map[string]Placement{}} }

func (b *board) count(course uuid.UUID) int {
	n := 0
	for _, p := range b.pos {
		if p.CourseID == course {
			n++
		}
	}
	return n
}

func (b *board) max(course uuid.UUID) int {
	m := 0
	for _, p := range b.pos {
		if p.CourseID == course && p.Position > m {
			m = p.Position
		}
	}
	return m
}

func (b *board) order(course uuid.UUID) []string {
	type kv struct {
		id  string
		pos int
	}
	var rows []kv
	for id, p := range b.pos {
		if p.CourseID == course {
			rows = append(rows, kv{id, p.Position})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].pos < rows[j].pos })
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.id)
	}
	return out
}

func (b *board) positions(course uuid.UUID) []int {
	var out []int
	for _, p := range b.pos {
		if p.CourseID == course {
			out = append(out, p.Position)
		}
	}
	return out
}

func (b *board) apply(subject string, plan Plan) {
	for _, s := range plan.Shifts {
		for id, p := range b.pos {
			if id == subject {
				continue
			}
			if p.CourseID == s.CourseID && s.Range.Contains(p.Position) {
				p.Position += s.Delta
				b.pos[id] = p
			}
		}
	}
	if plan.Placement.Position == 0 {
		delete(b.pos, subject)
		return
	}
	b.pos[subject] = plan.Placement
}

func (b *board) insert(id string, course uuid.UUID, requested *int) Plan {
	plan := PlanInsert(course, b.count(course), b.max(course), requested)
	b.apply(id, plan)
	return plan
}

func (b *board) move(id string, target uuid.UUID, position int) Plan {
	cur := b.pos[id]
	plan := PlanMove(Move{
		SourceCourseID:  cur.CourseID,
		CurrentPosition: cur.Position,
		SourceCount:     b.count(cur.CourseID),
		TargetCourseID:  target,
		TargetPosition:  position,
		TargetCount:     b.count(target),
	})
	b.apply(id, plan)
	return plan
}

func (b *board) remove(id string) Plan {
	cur := b.pos[id]
	plan := PlanRemove(cur.CourseID, cur.Position, b.count(cur.CourseID))
	b.apply(id, plan)
	return plan
}

func intPtr(v int) *int { return &v }

func TestPlanInsertAppendsWithoutRequest(t *testing.T) {
	course := uuid.New()
	b := newBoard()
	plan := b.insert("a", course, nil)
	assert.Equal(t, 1, plan.Placement.Position)
	assert.True(t, plan.Noop())

	b.insert("b", course, nil)
	b.insert("c", course, nil)
	assert.Equal(t, []string{"a", "b", "c"}, b.order(course))
}

func TestPlanInsertClampsRequestedPosition(t *testing.T) {
	course := uuid.New()

	b := newBoard()
	for _, id := range []string{"a", "b", "c"} {
		b.insert(id, course, nil)
	}
	plan := b.insert("high", course, intPtr(9999))
	assert.Equal(t, 4, plan.Placement.Position)
	assert.Empty(t, plan.Shifts)

	b = newBoard()
	for _, id := range []string{"a", "b", "c"} {
		b.insert(id, course, nil)
	}
	plan = b.insert("low", course, intPtr(-5))
	assert.Equal(t, 1, plan.Placement.Position)
	require.Len(t, plan.Shifts, 1)
	assert.Equal(t, Shift{CourseID: course, Range: Range{From: 1}, Delta: 1}, plan.Shifts[0])
	assert.Equal(t, []string{"low", "a", "b", "c"}, b.order(course))
}

func TestPlanMoveSameCourseForward(t *testing.T) {
	course := uuid.New()
	b := newBoard()
	for _, id := range []string{"A", "B", "C"} {
		b.insert(id, course, nil)
	}
	plan := b.move("A", course, 3)
	require.Len(t, plan.Shifts, 1)
	assert.Equal(t, Range{From: 2, To: 3}, plan.Shifts[0].Range)
	assert.Equal(t, -1, plan.Shifts[0].Delta)
	assert.Equal(t, []string{"B", "C", "A"}, b.order(course))
}

func TestPlanMoveSameCourseBackward(t *testing.T) {
	course := uuid.New()
	b := newBoard()
	for _, id := range []string{"A", "B", "C", "D"} {
		b.insert(id, course, nil)
	}
	b.move("D", course, 2)
	assert.Equal(t, []string{"A", "D", "B", "C"}, b.order(course))
}

func TestPlanMoveSameCourseClampsToCount(t *testing.T) {
	course := uuid.New()
	b := newBoard()
	for _, id := range []string{"A", "B", "C"} {
		b.insert(id, course, nil)
	}
	plan := b.move("B", course, 50)
	assert.Equal(t, 3, plan.Placement.Position)
	assert.Equal(t, []string{"A", "C", "B"}, b.order(course))

	plan = b.move("B", uuid.Nil, 0)
	assert.Equal(t, 1, plan.Placement.Position)
	assert.Equal(t, []string{"B", "A", "C"}, b.order(course))
}

func TestPlanMoveIsIdempotent(t *testing.T) {
	course := uuid.New()
	b := newBoard()
	for _, id := range []string{"A", "B", "C", "D"} {
		b.insert(id, course, nil)
	}
	b.move("A", course, 3)
	first := b.order(course)
	plan := b.move("A", course, 3)
	assert.True(t, plan.Noop())
	assert.Equal(t, first, b.order(course))
}

func TestPlanMoveCrossCourse(t *testing.T) {
	src, dst := uuid.New(), uuid.New()
	b := newBoard()
	for _, id := range []string{"A", "B", "C"} {
		b.insert(id, src, nil)
	}
	for _, id := range []string{"X", "Y"} {
		b.insert(id, dst, nil)
	}

	plan := b.move("B", dst, 1)
	assert.Equal(t, Placement{CourseID: dst, Position: 1}, plan.Placement)
	assert.Len(t, plan.Shifts, 2)
	assert.Equal(t, []string{"A", "C"}, b.order(src))
	assert.Equal(t, []string{"B", "X", "Y"}, b.order(dst))

	plan = b.move("C", dst, 100)
	assert.Equal(t, 4, plan.Placement.Position)
	assert.Empty(t, plan.Shifts)
	assert.Equal(t, []string{"B", "X", "Y", "C"}, b.order(dst))
}

func TestPlanMoveIntoEmptyCourse(t *testing.T) {
	src, dst := uuid.New(), uuid.New()
	b := newBoard()
	b.insert("A", src, nil)
	b.insert("B", src, nil)

	plan := b.move("A", dst, 7)
	assert.Equal(t, Placement{CourseID: dst, Position: 1}, plan.Placement)
	assert.Equal(t, []string{"B"}, b.order(src))
	assert.Equal(t, []int{1}, b.positions(src))
}

func TestPlanRemove(t *testing.T) {
	course := uuid.New()
	b := newBoard()
	for _, id := range []string{"a", "b", "c", "d"} {
		b.insert(id, course, nil)
	}
	b.remove("b")
	assert.Equal(t, []string{"a", "c", "d"}, b.order(course))
	assert.NoError(t, Verify(b.positions(course)))

	plan := b.remove("d")
	assert.True(t, plan.Noop())
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify(nil))
	assert.NoError(t, Verify([]int{3, 1, 2}))

	err := Verify([]int{1, 1, 4})
	require.Error(t, err)
	var v *Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, []int{1}, v.Duplicates)
	assert.Equal(t, []int{4}, v.OutOfRange)
	assert.Equal(t, []int{2, 3}, v.Missing)
}

func TestRandomSequencesStayContiguous(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	courses := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	b := newBoard()
	next := 0

	for step := 0; step < 2000; step++ {
		var ids []string
		for id := range b.pos {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			next++
			id := uuid.NewString()
			course := courses[rng.Intn(len(courses))]
			if rng.Intn(2) == 0 {
				b.insert(id, course, nil)
			} else {
				b.insert(id, course, intPtr(rng.Intn(20)-5))
			}
		case op == 1:
			id := ids[rng.Intn(len(ids))]
			b.move(id, courses[rng.Intn(len(courses))], rng.Intn(20)-5)
		default:
			b.remove(ids[rng.Intn(len(ids))])
		}

		for _, c := range courses {
			require.NoError(t, Verify(b.positions(c)), "step %d", step)
		}
	}
	assert.Positive(t, next)
}
