package db

import (
	"fmt"
	"math"

	"similarity-lab/config"
	"similarity-lab/ranker"
)

/*
VectorAdd adds two vectors element-wise

Parameters:
a, b: []float32 - The vectors to add
*/
func VectorAdd(a, b []float32) ([]float32, error) {
	if len(a) != len(b) {
		return nil, ranker.ErrDimensionMismatch
	}

	result := make([]float32, len(a))
	for i := range a {
		result[i] = a[i] + b[i]
	}
	return result, nil
}

/*
VectorSubtract subtracts vector b from vector a element-wise

Parameters:
a, b: []float32 - The vectors to subtract
*/
func VectorSubtract(a, b []float32) ([]float32, error) {
	if len(a) != len(b) {
		return nil, ranker.ErrDimensionMismatch
	}

	result := make([]float32, len(a))
	for i := range a {
		result[i] = a[i] - b[i]
	}
	return result, nil
}

/*
Offset computes a - b + c, the query vector of a word analogy
("king" - "man" + "woman")
*/
func Offset(a, b, c []float32) ([]float32, error) {
	diff, err := VectorSubtract(a, b)
	if err != nil {
		return nil, fmt.Errorf("offset: %w", err)
	}
	return VectorAdd(diff, c)
}

/*
NormalizeVector normalizes a vector to unit length in place.
Zero vectors are left unchanged.
*/
func NormalizeVector(v []float32) {
	norm := VectorMagnitude(v)
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
}

/*
Normalized returns a unit-length copy of v
*/
func Normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	NormalizeVector(out)
	return out
}

/*
CosineSimilarity calculates the cosine similarity between two vectors

Returns:
float32 - A value between -1 and 1, where 1 means identical direction,
0 means orthogonal, and -1 means opposite directions
*/
func CosineSimilarity(a, b []float32) (float32, error) {
	return ranker.Score(ranker.Cosine, a, b)
}

/*
DotProduct computes the dot product of two vectors
*/
func DotProduct(a, b []float32) (float32, error) {
	return ranker.Score(ranker.Dot, a, b)
}

/*
VectorMagnitude computes the magnitude (length) of a vector
*/
func VectorMagnitude(v []float32) float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return float32(math.Sqrt(sum))
}

/*
Distance calculates the distance between two vectors for the given distance type.
Lower is closer for every type.
*/
func Distance(distanceType config.DistanceType, a, b []float32) float32 {
	switch distanceType {
	case config.DistanceTypeCosine:
		return cosineDistance(a, b)
	case config.DistanceTypeManhattan:
		return manhattanDistance(a, b)
	case config.DistanceTypeHamming:
		return hammingDistance(a, b)
	default:
		return euclideanDistance(a, b)
	}
}

/*
ScoreFunc returns the conversion from a distance of the given type into a
descending-is-better similarity score
*/
func ScoreFunc(distanceType config.DistanceType) ranker.DistanceScore {
	if distanceType == config.DistanceTypeCosine {
		return ranker.OneMinusDistance
	}
	return ranker.NegatedDistance
}

func euclideanDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return float32(math.Sqrt(float64(sum)))
}

// cosineDistance is 1 - cosine similarity; zero vectors are at distance 1
func cosineDistance(a, b []float32) float32 {
	s, err := ranker.Score(ranker.Cosine, a, b)
	if err != nil {
		return 2
	}
	return 1 - s
}

func manhattanDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += float32(math.Abs(float64(a[i] - b[i])))
	}
	return sum
}

func hammingDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		if a[i] != b[i] {
			sum++
		}
	}
	return sum
}
