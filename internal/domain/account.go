package domain

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleRider = "rider"
	RoleAdmin = "admin"
)

// OTPRecord is the one-time-code state embedded in every account.
type OTPRecord struct {
	CodeHash   string     `bson:"code_hash,omitempty" json:"-"`
	ExpiresAt  *time.Time `bson:"expires_at,omitempty" json:"-"`
	Attempts   int        `bson:"attempts" json:"-"`
	LastSentAt *time.Time `bson:"last_sent_at,omitempty" json:"-"`
}

// Exists reports whether a code was ever issued to the account.
func (o *OTPRecord) Exists() bool {
	return o.LastSentAt != nil || o.CodeHash != ""
}

// Usable reports whether a code is present and unexpired at now.
func (o *OTPRecord) Usable(now time.Time) bool {
	return o.CodeHash != "" && o.ExpiresAt != nil && !now.After(*o.ExpiresAt)
}

// Credentials is the identity block shared by every account kind.
type Credentials struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Verified     bool               `bson:"is_verified" json:"isVerified"`
	OTP          OTPRecord          `bson:"otp" json:"-"`
	ProfileImage string             `bson:"profile_image,omitempty" json:"profileImage,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (c *Credentials) Account() *Credentials { return c }

// Principal is an account that can sign in: a user, a rider or a company.
type Principal interface {
	Account() *Credentials
	// Kind names the account type in messages and metrics ("user", "rider", "company").
	Kind() string
	Role() string
	DisplayName() string
	// Validate checks the fields required at signup.
	Validate() error
	// ApplyProfile copies the editable fields present in patch and returns
	// the changed storage fields.
	ApplyProfile(patch map[string]string) (map[string]any, error)
}

// SignupForm is a flattened signup payload. Nested JSON objects use dotted keys.
type SignupForm map[string]string

func (f SignupForm) Get(key string) string {
	return strings.TrimSpace(f[key])
}

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]{2,}$`)
	phonePattern = regexp.MustCompile(`^(?:\+234|0)[789]\d{9}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func ValidName(s string) bool  { return namePattern.MatchString(s) }
func ValidPhone(s string) bool { return phonePattern.MatchString(s) }
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// NormalizeEmail lowercases and trims an address for lookups and storage.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func newCredentials(form SignupForm) Credentials {
	return Credentials{Email: NormalizeEmail(form.Get("email"))}
}

// Require fails with a validation error naming every blank key.
func (f SignupForm) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if f.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Validation("Missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func checkEmail(email string) error {
	if email == "" {
		return Validation("Email is required")
	}
	if !ValidEmail(email) {
		return Validation("Invalid email address")
	}
	return nil
}

// applyString sets *dst and records the change when key is present in patch.
func applyString(patch map[string]string, key, field string, dst *string, changed map[string]any) {
	v, ok := patch[key]
	if !ok {
		return
	}
	v = strings.TrimSpace(v)
	*dst = v
	changed[field] = v
}
