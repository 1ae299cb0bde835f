package utils

import (
	"math"
	"math/rand"

	"golang.org/x/exp/constraints"
)

type Pair[F any, S any] struct {
	First  F
	Second S
}

// An imprecise float approximate comparison. "optional" variance with ... args strategy
func FloatEquals(a float64, b float64, inputVariance ...float64) bool {
	variance := 0.001
	if len(inputVariance) >= 1 {
		variance = inputVariance[0]
	}
	return math.Abs(a-b) < variance
}

func Max[T constraints.Ordered](x, y T) T {
	if x < y {
		return y
	}
	return x
}

func Min[T constraints.Ordered](x, y T) T {
	if y < x {
		return y
	}
	return x
}

func MaxSlice[T constraints.Ordered](slice []T) T {
	max := slice[0]
	for i := range slice {
		max = Max(max, slice[i])
	}
	return max
}

func Sum[T constraints.Integer | constraints.Float](slice []T) (sum T) {
	for i := range slice {
		sum += slice[i]
	}
	return sum
}

func Shuffle[T any](slice []T) {
	rand.Shuffle(len(slice), func(i, j int) {
		slice[i], slice[j] = slice[j], slice[i]
	})
}
