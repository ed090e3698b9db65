package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecipientID string             `bson:"recipient_id" json:"recipientId"`
	Title       string             `bson:"title" json:"title"`
	Message     string             `bson:"message" json:"message"`
	Type        NotificationType   `bson:"type" json:"type"`
	IsRead      bool               `bson:"is_read" json:"isRead"`
	RelatedID   string             `bson:"related_id,omitempty" json:"relatedId,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}

// RiderLocation is the last reported position of a rider.
type RiderLocation struct {
	RiderID   string    `json:"riderId"`
	PublicID  string    `json:"publicId,omitempty"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l RiderLocation) Validate() error {
	if l.Lat < -90 || l.Lat > 90 || l.Lng < -180 || l.Lng > 180 {
		return Validation("Latitude must be within [-90, 90] and longitude within [-180, 180]")
	}
	return nil
}

// Claims is what a session token asserts about its bearer.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
