package models

import "time"

type DeliveryStatus string

const (
	DeliveryStatusPlanned    DeliveryStatus = "PLANNED"
	DeliveryStatusInProgress DeliveryStatus = "IN_PROGRESS"
	DeliveryStatusDelivered  DeliveryStatus = "DELIVERED"
)

func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	switch DeliveryStatus(s) {
	case DeliveryStatusPlanned, DeliveryStatusInProgress, DeliveryStatusDelivered:
		return DeliveryStatus(s), true
	}
	return "", false
}

type ResponseItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// Response is planned or delivered humanitarian aid tied to a verified
// assessment. It carries both a delivery status and the same verification
// state machine as assessments.
type Response struct {
	ID           string
	AssessmentID string
	EntityID     string
	IncidentID   string
	ResponderID  string

	Status         VerificationStatus
	DeliveryStatus DeliveryStatus
	PlannedItems   []ResponseItem
	DeliveredItems []ResponseItem
	PlannedDate    time.Time
	DeliveredAt    *time.Time

	VerifierID      string
	VerifiedAt      *time.Time
	RejectionReason string
	RejectionNotes  string

	CreatedAt time.Time
	UpdatedAt time.Time
}
