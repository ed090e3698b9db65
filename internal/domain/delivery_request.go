package domain

import "strings"

// DeliveryRequest is the raw intake payload before validation and pricing.
type DeliveryRequest struct {
	Sender struct {
		FullName           string `json:"fullName"`
		PhoneNumber        string `json:"phoneNumber"`
		Email              string `json:"email"`
		PickupLocation     string `json:"pickupLocation"`
		Address            string `json:"address"`
		PickupDate         string `json:"pickupDate"`
		PackageDescription string `json:"packageDescription"`
		PickupInstructions string `json:"pickupInstructions"`
	} `json:"sender"`
	Receiver struct {
		FullName         string `json:"fullName"`
		PhoneNumber      string `json:"phoneNumber"`
		PhoneNumber2     string `json:"phoneNumber2"`
		Email            string `json:"email"`
		DeliveryLocation string `json:"deliveryLocation"`
		Address          string `json:"address"`
	} `json:"receiver"`
}

// Normalize trims every field in place.
func (r *DeliveryRequest) Normalize() {
	s := &r.Sender
	for _, f := range []*string{&s.FullName, &s.PhoneNumber, &s.Email, &s.PickupLocation, &s.Address,
		&s.PickupDate, &s.PackageDescription, &s.PickupInstructions} {
		*f = strings.TrimSpace(*f)
	}
	rc := &r.Receiver
	for _, f := range []*string{&rc.FullName, &rc.PhoneNumber, &rc.PhoneNumber2, &rc.Email,
		&rc.DeliveryLocation, &rc.Address} {
		*f = strings.TrimSpace(*f)
	}
	s.Email = NormalizeEmail(s.Email)
	rc.Email = NormalizeEmail(rc.Email)
}

// Validate checks contact fields. Zone and date checks belong to pricing.
func (r *DeliveryRequest) Validate() error {
	s, rc := r.Sender, r.Receiver
	if s.FullName == "" || s.PhoneNumber == "" || s.PickupLocation == "" || s.Address == "" ||
		s.PickupDate == "" || s.PackageDescription == "" {
		return Validation("Sender full name, phone number, pickup location, address, pickup date and package description are required")
	}
	if rc.FullName == "" || rc.PhoneNumber == "" || rc.Email == "" || rc.DeliveryLocation == "" {
		return Validation("Receiver full name, phone number, email and delivery location are required")
	}
	if !ValidName(s.FullName) {
		return Validation("Invalid sender name")
	}
	if !ValidPhone(s.PhoneNumber) {
		return Validation("Invalid sender phone number")
	}
	if s.Email != "" && !ValidEmail(s.Email) {
		return Validation("Invalid sender email")
	}
	if !ValidName(rc.FullName) {
		return Validation("Invalid receiver name")
	}
	if !ValidPhone(rc.PhoneNumber) {
		return Validation("Invalid receiver phone number")
	}
	if rc.PhoneNumber2 != "" && !ValidPhone(rc.PhoneNumber2) {
		return Validation("Invalid receiver alternate phone number")
	}
	if !ValidEmail(rc.Email) {
		return Validation("Invalid receiver email")
	}
	return nil
}
