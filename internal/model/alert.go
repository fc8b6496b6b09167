package model

import "time"

type Alert struct {
	ID        string    `json:"id"`
	PartID    string    `json:"part_id"`
	PartName  string    `json:"part_name"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}
