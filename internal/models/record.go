package models

// Record is a row returned by a record source search.
type Record struct {
	ID    int64
	Value string
}
