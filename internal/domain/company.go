package domain

type Company struct {
	Credentials    `bson:",inline"`
	CompanyName    string `bson:"company_name" json:"companyName"`
	CompanyAddress string `bson:"company_address" json:"companyAddress"`
	CompanyPhone   string `bson:"company_phone" json:"companyPhone"`
	AccountRole    string `bson:"role" json:"role"`
}

func NewCompany(form SignupForm) *Company {
	return &Company{
		Credentials:    newCredentials(form),
		CompanyName:    form.Get("companyName"),
		CompanyAddress: form.Get("companyAddress"),
		CompanyPhone:   form.Get("companyPhone"),
		AccountRole:    RoleAdmin,
	}
}

func (c *Company) Kind() string        { return "company" }
func (c *Company) Role() string        { return RoleAdmin }
func (c *Company) DisplayName() string { return c.CompanyName }

func (c *Company) Validate() error {
	if c.CompanyName == "" || c.CompanyAddress == "" || c.CompanyPhone == "" {
		return Validation("Company name, email, address, phone and password are required")
	}
	if err := checkEmail(c.Email); err != nil {
		return err
	}
	if !ValidPhone(c.CompanyPhone) {
		return Validation("Invalid company phone number")
	}
	return nil
}

func (c *Company) ApplyProfile(patch map[string]string) (map[string]any, error) {
	changed := map[string]any{}
	applyString(patch, "companyName", "company_name", &c.CompanyName, changed)
	applyString(patch, "companyAddress", "company_address", &c.CompanyAddress, changed)
	applyString(patch, "companyPhone", "company_phone", &c.CompanyPhone, changed)
	if _, ok := changed["company_name"]; ok && c.CompanyName == "" {
		return nil, Validation("Company name cannot be empty")
	}
	if _, ok := changed["company_phone"]; ok && !ValidPhone(c.CompanyPhone) {
		return nil, Validation("Invalid company phone number")
	}
	return changed, nil
}
