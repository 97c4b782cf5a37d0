package model

import "time"

// SavedQuery is a query state persisted together with the string that was
// generated from it at save time.
type SavedQuery struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	NrqlQuery string     `json:"nrqlQuery"`
	State     QueryState `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
}
