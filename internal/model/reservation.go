package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Blocking reports whether a reservation in the given status occupies its
// time interval. Cancelled and completed reservations never block.
func Blocking(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

// ValidStatus reports whether s is one of the known reservation statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a reservation may move from one status to
// another. Cancelled and completed are terminal.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}

type Reservation struct {
	ID            string
	FacilityID    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Title         string
	Description   string
	Notes         string
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	DurationHours float64
	// HourlyRate and TotalCost are snapshotted at creation time so later
	// facility price changes do not reprice existing reservations.
	HourlyRate *float64
	TotalCost  *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
