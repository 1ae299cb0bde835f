package pregel

import "math"

// Reducer folds multiple messages for the same target into one value.
// Reduce must be associative, and since arrival order within a superstep is
// not guaranteed, order-insensitive. Identity must satisfy
// Reduce(Identity(), m) == m.
type Reducer[M Number] interface {
	Identity() M
	Reduce(acc, m M) M
}

// SumReducer accumulates the sum of all messages.
type SumReducer[M Number] struct{}

func (SumReducer[M]) Identity() (z M)   { return z }
func (SumReducer[M]) Reduce(acc, m M) M { return acc + m }

// MinReducer keeps the smallest message.
type MinReducer[M Number] struct{}

func (MinReducer[M]) Identity() M { return maxValue[M]() }
func (MinReducer[M]) Reduce(acc, m M) M {
	if m < acc {
		return m
	}
	return acc
}

// MaxReducer keeps the largest message.
type MaxReducer[M Number] struct{}

func (MaxReducer[M]) Identity() M { return minValue[M]() }
func (MaxReducer[M]) Reduce(acc, m M) M {
	if m > acc {
		return m
	}
	return acc
}

func maxValue[M Number]() M {
	var z M
	if _, isLong := any(z).(int64); isLong {
		return M(int64(math.MaxInt64))
	}
	return M(math.Inf(1))
}

func minValue[M Number]() M {
	var z M
	if _, isLong := any(z).(int64); isLong {
		return M(int64(math.MinInt64))
	}
	return M(math.Inf(-1))
}
