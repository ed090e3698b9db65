package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryPickedUp  DeliveryStatus = "picked_up"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

type DeliveryType string

const (
	DeliveryExpress  DeliveryType = "express"
	DeliveryStandard DeliveryType = "standard"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:   {DeliveryAssigned, DeliveryCancelled},
	DeliveryAssigned:  {DeliveryPickedUp, DeliveryCancelled},
	DeliveryPickedUp:  {DeliveryDelivered, DeliveryCancelled},
	DeliveryDelivered: {},
	DeliveryCancelled: {},
}

func ParseDeliveryStatus(s string) (DeliveryStatus, bool) {
	st := DeliveryStatus(s)
	_, ok := deliveryTransitions[st]
	return st, ok
}

type Sender struct {
	FullName           string    `bson:"full_name" json:"fullName"`
	PhoneNumber        string    `bson:"phone_number" json:"phoneNumber"`
	Email              string    `bson:"email,omitempty" json:"email,omitempty"`
	PickupLocation     string    `bson:"pickup_location" json:"pickupLocation"`
	Address            string    `bson:"address" json:"address"`
	PickupDate         time.Time `bson:"pickup_date" json:"pickupDate"`
	PackageDescription string    `bson:"package_description" json:"packageDescription"`
	PickupInstructions string    `bson:"pickup_instructions,omitempty" json:"pickupInstructions,omitempty"`
}

type Receiver struct {
	FullName         string `bson:"full_name" json:"fullName"`
	PhoneNumber      string `bson:"phone_number" json:"phoneNumber"`
	PhoneNumber2     string `bson:"phone_number2,omitempty" json:"phoneNumber2,omitempty"`
	Email            string `bson:"email" json:"email"`
	DeliveryLocation string `bson:"delivery_location" json:"deliveryLocation"`
	Address          string `bson:"address,omitempty" json:"address,omitempty"`
}

type Delivery struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrackingID   string             `bson:"tracking_id" json:"trackingId"`
	UserID       string             `bson:"user_id,omitempty" json:"userId,omitempty"`
	RiderID      string             `bson:"rider_id,omitempty" json:"riderId,omitempty"`
	Sender       Sender             `bson:"sender" json:"sender"`
	Receiver     Receiver           `bson:"receiver" json:"receiver"`
	Price        float64            `bson:"price" json:"price"`
	DeliveryType DeliveryType       `bson:"delivery_type" json:"deliveryType"`
	Status       DeliveryStatus     `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CanTransition reports whether the delivery may move to next.
func (d *Delivery) CanTransition(next DeliveryStatus) bool {
	for _, s := range deliveryTransitions[d.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Transition moves the delivery to next or fails with a validation error.
func (d *Delivery) Transition(next DeliveryStatus, now time.Time) error {
	if _, ok := deliveryTransitions[next]; !ok {
		return Validation("Unknown delivery status %q", next)
	}
	if !d.CanTransition(next) {
		return Validation("Cannot change delivery status from %s to %s", d.Status, next)
	}
	d.Status = next
	d.UpdatedAt = now
	return nil
}

func (d *Delivery) String() string {
	return fmt.Sprintf("delivery %s (%s)", d.TrackingID, d.Status)
}
