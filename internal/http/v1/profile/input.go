package profile

// CreateInput for POST /profile
type CreateInput struct {
	Body struct {
		DisplayName string `json:"displayName"        minLength:"1" maxLength:"50"          required:"true" doc:"Name shown to donors"     example:"Hanako"`
		Email       string `json:"email"              format:"email"                        required:"true" doc:"Notification address"     example:"hanako@example.jp"`
		PhoneNumber string `json:"phoneNumber"        pattern:"^\\+[1-9]\\d{6,14}$"         required:"true" doc:"Phone (E.164)"            example:"+819012345678"`
		PostalCode  string `json:"postalCode"         pattern:"^\\d{3}-\\d{4}$"             required:"true" doc:"Japanese postal code"     example:"150-0001"`
		Prefecture  string `json:"prefecture"         minLength:"1" maxLength:"20"          required:"true" doc:"Prefecture"               example:"Tokyo"`
		City        string `json:"city"               minLength:"1" maxLength:"50"          required:"true" doc:"City or ward"             example:"Shibuya"`
		Address     string `json:"address,omitempty"  maxLength:"200"                                       doc:"Street address for delivery" example:"Jingumae 1-2-3"`
		Marketing   bool   `json:"marketing,omitempty"                                                      doc:"Marketing opt-in"         example:"false"`
		Terms       bool   `json:"terms"                                                    required:"true" doc:"Terms acceptance"         example:"true"`
	}
}

// UpdateInput for PATCH /profile. Omitted fields are left unchanged.
type UpdateInput struct {
	Body struct {
		DisplayName *string `json:"displayName,omitempty" minLength:"1" maxLength:"50"  doc:"Name shown to donors"`
		Email       *string `json:"email,omitempty"       format:"email"                doc:"Notification address"`
		PhoneNumber *string `json:"phoneNumber,omitempty" pattern:"^\\+[1-9]\\d{6,14}$" doc:"Phone (E.164)"`
		PostalCode  *string `json:"postalCode,omitempty"  pattern:"^\\d{3}-\\d{4}$"     doc:"Japanese postal code"`
		Prefecture  *string `json:"prefecture,omitempty"  minLength:"1" maxLength:"20"  doc:"Prefecture"`
		City        *string `json:"city,omitempty"        minLength:"1" maxLength:"50"  doc:"City or ward"`
		Address     *string `json:"address,omitempty"     maxLength:"200"               doc:"Street address for delivery"`
		Marketing   *bool   `json:"marketing,omitempty"                                 doc:"Marketing opt-in"`
	}
}
