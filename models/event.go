package models

import (
	"time"
)

type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	City        string `json:"city"`
	Venue       string `json:"venue"`
	OrganizerID string `json:"organizer_id"`
	Status      string `json:"status"` // draft, published, ended
}

// EventDate is one scheduled occurrence of an event with its own capacity.
type EventDate struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Price     float64   `json:"price"`
	Capacity  int       `json:"capacity"`
	Available int       `json:"available"`
}

func (d *EventDate) SoldOut() bool {
	return d.Available <= 0
}
