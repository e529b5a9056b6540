package domain

import "time"

type Customer struct {
	ID             int32  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	DocumentNumber string `json:"document_number"`
	// Rating is the reliability score (0-5). Nil for customers without history.
	Rating     *float64   `json:"rating,omitempty"`
	CreatedOn  time.Time  `json:"created_on"`
	ArchivedOn *time.Time `json:"archived_on,omitempty"`
}
