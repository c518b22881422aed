package models

import "time"

type Group struct {
	ID        int64
	Name      string
	OwnerID   string
	CreatedAt time.Time
}
