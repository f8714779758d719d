// Package matutils provides small helpers over gonum vectors
package matutils

import (
	"gonum.org/v1/gonum/mat"
)

// MaxVec returns the index of a vector's maximum element, taking the
// first index on ties
func MaxVec(values mat.Vector) int {
	max, idx := values.AtVec(0), 0

	for i := 1; i < values.Len(); i++ {
		if values.AtVec(i) > max {
			max = values.AtVec(i)
			idx = i
		}
	}
	return idx
}
