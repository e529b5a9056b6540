package domain

import "time"

type Branch struct {
	ID      int32  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Active  bool   `json:"active"`
	// ArchivedOn marks a closed branch. The row is kept so historical
	// reservations still reference it.
	ArchivedOn *time.Time `json:"archived_on,omitempty"`
	CreatedOn  time.Time  `json:"created_on"`
}

// IsOperational reports whether the branch can take new reservations.
func (b *Branch) IsOperational() bool {
	return b.Active && b.ArchivedOn == nil
}

// BranchStock is the per-(item, branch) inventory row.
type BranchStock struct {
	ItemID    int32     `json:"item_id"`
	BranchID  int32     `json:"branch_id"`
	Total     int32     `json:"total"`
	Available int32     `json:"available"`
	UpdatedOn time.Time `json:"updated_on"`
}

// BranchAvailability is one branch's answer to an availability query.
type BranchAvailability struct {
	Branch Branch `json:"branch"`
	Free   int32  `json:"free"`
}
