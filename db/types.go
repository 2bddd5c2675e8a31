package db

import "similarity-lab/ranker"

/*
Vector represents a stored vector and the metadata shown next to search hits
*/
type Vector struct {
	ID   string      `json:"id"`
	Data []float32   `json:"data"`
	Meta ranker.Meta `json:"meta"`
}

/*
Candidate converts the stored vector into a ranker candidate
*/
func (v Vector) Candidate() ranker.Candidate {
	return ranker.Candidate{ID: v.ID, Vector: v.Data, Meta: v.Meta}
}
