package domain

import "time"

// Department is a catalog entry used as the affected area of an item.
type Department struct {
	ID          int64
	Name        string
	ShortName   string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
