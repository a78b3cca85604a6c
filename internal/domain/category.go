package domain

import "time"

// Category groups line items for reporting. Names are unique per owner.
type Category struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}
