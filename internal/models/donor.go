package models

import "time"

type Donor struct {
	ID           string
	Name         string
	Organization string
	Email        string
	Phone        string
	// UserID links the donor profile to the account allowed to manage its
	// commitments. Empty means coordinator-managed only.
	UserID    string
	CreatedAt time.Time
}

type CommitmentStatus string

const (
	CommitmentStatusPlanned   CommitmentStatus = "PLANNED"
	CommitmentStatusDelivered CommitmentStatus = "DELIVERED"
)

func ParseCommitmentStatus(s string) (CommitmentStatus, bool) {
	switch CommitmentStatus(s) {
	case CommitmentStatusPlanned, CommitmentStatusDelivered:
		return CommitmentStatus(s), true
	}
	return "", false
}

// DonorCommitment is a donor's pledge of items toward an incident response,
// optionally targeted at one entity.
type DonorCommitment struct {
	ID          string
	DonorID     string
	IncidentID  string
	EntityID    string // optional, empty means incident-wide
	Items       []ResponseItem
	Status      CommitmentStatus
	PledgedAt   time.Time
	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
