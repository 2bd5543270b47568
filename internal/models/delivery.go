package models

import "time"

type DeliveryKind string

const (
	DeliveryTest      DeliveryKind = "test"
	DeliveryReport    DeliveryKind = "report"
	DeliveryScheduled DeliveryKind = "scheduled"
)

type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

// Delivery is one attempt to mail one recipient. Attempts made by the same
// operation share a BatchID.
type Delivery struct {
	ID          string         `bson:"-" json:"id,omitempty"`
	BatchID     string         `bson:"batch_id" json:"batch_id"`
	Kind        DeliveryKind   `bson:"kind" json:"kind"`
	Recipient   string         `bson:"recipient,omitempty" json:"recipient,omitempty"`
	Subject     string         `bson:"subject,omitempty" json:"subject,omitempty"`
	ReportPath  string         `bson:"report_path,omitempty" json:"report_path,omitempty"`
	Status      DeliveryStatus `bson:"status" json:"status"`
	Message     string         `bson:"message,omitempty" json:"message,omitempty"`
	AttemptedAt time.Time      `bson:"attempted_at" json:"attempted_at"`
}
