package domain

import (
	"fmt"
	"strings"
)

type RiderStatus string

const (
	RiderPending   RiderStatus = "pending"
	RiderApproved  RiderStatus = "approved"
	RiderSuspended RiderStatus = "suspended"
)

var (
	governmentIDTypes = map[string]bool{"NIN": true, "DRIVERS_LICENSE": true, "PASSPORT": true}
	vehicleTypes      = map[string]bool{"bike": true, "car": true, "van": true, "truck": true}
)

type Vehicle struct {
	Type        string `bson:"type" json:"type"`
	PlateNumber string `bson:"plate_number" json:"plateNumber"`
	Color       string `bson:"color,omitempty" json:"color,omitempty"`
}

type Rider struct {
	Credentials        `bson:",inline"`
	RiderID            string      `bson:"rider_id" json:"riderId"`
	FullName           string      `bson:"full_name" json:"fullName"`
	PhoneNumber        string      `bson:"phone_number" json:"phoneNumber"`
	GovernmentIDType   string      `bson:"government_id_type" json:"governmentIdType"`
	GovernmentIDNumber string      `bson:"government_id_number" json:"governmentIdNumber"`
	Vehicle            Vehicle     `bson:"vehicle" json:"vehicle"`
	Status             RiderStatus `bson:"status" json:"status"`
	IsAvailable        bool        `bson:"is_available" json:"isAvailable"`
	ApprovedBy         string      `bson:"approved_by,omitempty" json:"approvedBy,omitempty"`
	Rating             float64     `bson:"rating" json:"rating"`
	TotalDeliveries    int         `bson:"total_deliveries" json:"totalDeliveries"`
	WalletBalance      float64     `bson:"wallet_balance" json:"walletBalance"`
}

func NewRider(form SignupForm) *Rider {
	return &Rider{
		Credentials:        newCredentials(form),
		FullName:           form.Get("fullName"),
		PhoneNumber:        form.Get("phoneNumber"),
		GovernmentIDType:   strings.ToUpper(form.Get("governmentIdType")),
		GovernmentIDNumber: form.Get("governmentIdNumber"),
		Vehicle: Vehicle{
			Type:        strings.ToLower(form.Get("vehicle.type")),
			PlateNumber: strings.ToUpper(form.Get("vehicle.plateNumber")),
			Color:       form.Get("vehicle.color"),
		},
		Status: RiderPending,
	}
}

// FormatRiderID renders the public rider number, e.g. RID-007.
func FormatRiderID(seq int64) string {
	return fmt.Sprintf("RID-%03d", seq)
}

func (r *Rider) Kind() string        { return "rider" }
func (r *Rider) Role() string        { return RoleRider }
func (r *Rider) DisplayName() string { return r.FullName }

func (r *Rider) Validate() error {
	if r.FullName == "" || r.PhoneNumber == "" || r.GovernmentIDType == "" || r.GovernmentIDNumber == "" ||
		r.Vehicle.Type == "" || r.Vehicle.PlateNumber == "" {
		return Validation("Full name, email, phone number, government ID, vehicle details and password are required")
	}
	if err := checkEmail(r.Email); err != nil {
		return err
	}
	if !ValidName(r.FullName) {
		return Validation("Full name must contain only letters and spaces")
	}
	if !ValidPhone(r.PhoneNumber) {
		return Validation("Invalid phone number")
	}
	if !governmentIDTypes[r.GovernmentIDType] {
		return Validation("Government ID type must be one of NIN, DRIVERS_LICENSE, PASSPORT")
	}
	if !vehicleTypes[r.Vehicle.Type] {
		return Validation("Vehicle type must be one of bike, car, van, truck")
	}
	return nil
}

func (r *Rider) ApplyProfile(patch map[string]string) (map[string]any, error) {
	changed := map[string]any{}
	applyString(patch, "fullName", "full_name", &r.FullName, changed)
	applyString(patch, "phoneNumber", "phone_number", &r.PhoneNumber, changed)
	applyString(patch, "vehicle.color", "vehicle.color", &r.Vehicle.Color, changed)
	if v, ok := patch["vehicle.type"]; ok {
		v = strings.ToLower(strings.TrimSpace(v))
		if !vehicleTypes[v] {
			return nil, Validation("Vehicle type must be one of bike, car, van, truck")
		}
		r.Vehicle.Type = v
		changed["vehicle.type"] = v
	}
	if _, ok := changed["full_name"]; ok && !ValidName(r.FullName) {
		return nil, Validation("Full name must contain only letters and spaces")
	}
	if _, ok := changed["phone_number"]; ok && !ValidPhone(r.PhoneNumber) {
		return nil, Validation("Invalid phone number")
	}
	return changed, nil
}

// CanWork reports whether the rider may go online and take deliveries.
func (r *Rider) CanWork() bool {
	return r.Status == RiderApproved && r.Verified
}
