package domain

import "time"

type Order struct {
	ID        string
	Products  []Product
	CreatedAt time.Time
}
