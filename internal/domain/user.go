package domain

type User struct {
	Credentials `bson:",inline"`
	FullName    string `bson:"full_name" json:"fullName"`
	PhoneNumber string `bson:"phone_number" json:"phoneNumber"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`
}

func NewUser(form SignupForm) *User {
	return &User{
		Credentials: newCredentials(form),
		FullName:    form.Get("fullName"),
		PhoneNumber: form.Get("phoneNumber"),
		Address:     form.Get("address"),
	}
}

func (u *User) Kind() string        { return "user" }
func (u *User) Role() string        { return RoleUser }
func (u *User) DisplayName() string { return u.FullName }

func (u *User) Validate() error {
	if u.FullName == "" || u.PhoneNumber == "" {
		return Validation("Full name, email, phone number and password are required")
	}
	if err := checkEmail(u.Email); err != nil {
		return err
	}
	if !ValidName(u.FullName) {
		return Validation("Full name must contain only letters and spaces")
	}
	if !ValidPhone(u.PhoneNumber) {
		return Validation("Invalid phone number")
	}
	return nil
}

func (u *User) ApplyProfile(patch map[string]string) (map[string]any, error) {
	changed := map[string]any{}
	applyString(patch, "fullName", "full_name", &u.FullName, changed)
	applyString(patch, "phoneNumber", "phone_number", &u.PhoneNumber, changed)
	applyString(patch, "address", "address", &u.Address, changed)
	if _, ok := changed["full_name"]; ok && !ValidName(u.FullName) {
		return nil, Validation("Full name must contain only letters and spaces")
	}
	if _, ok := changed["phone_number"]; ok && !ValidPhone(u.PhoneNumber) {
		return nil, Validation("Invalid phone number")
	}
	return changed, nil
}
