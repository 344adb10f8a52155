package progress

import "math"

// Summary is a learner's standing in one course. Only published modules count.
type Summary struct {
	Done       int  `json:"done"`
	Total      int  `json:"total"`
	Percentage int  `json:"percentage"`
	Completed  bool `json:"completed"`
}

// Percentage rounds 100*done/total half away from zero, clamped to 0..100.
// An empty course is 0%.
func Percentage(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

// IsComplete requires at least one published module and all of them done.
func IsComplete(done, total int) bool {
	return total > 0 && done >= total
}

func Summarize(done, total int) Summary {
	if done < 0 {
		done = 0
	}
	if total < 0 {
		total = 0
	}
	return Summary{
		Done:       done,
		Total:      total,
		Percentage: Percentage(done, total),
		Completed:  IsComplete(done, total),
	}
}
