package profile

// CreatedOutput is returned by POST /profile.
type CreatedOutput struct {
	Location string `header:"Location" doc:"URL of the profile"`
	Body     Profile
}

// Output is returned by GET and PATCH /profile.
type Output struct {
	Body Profile
}
