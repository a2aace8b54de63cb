package pagemodel

// Placeholder credentials, replaced per deployment.
const (
	PlaceholderEmail    = "{YOUR_EMAIL}"
	PlaceholderPassword = "{YOUR_PASSWORD}"
)

// Credentials are the login details of the test account.
type Credentials struct {
	Email    string
	Password string
}

// DefaultCredentials returns the placeholders.
func DefaultCredentials() Credentials {
	return Credentials{Email: PlaceholderEmail, Password: PlaceholderPassword}
}

// IsPlaceholder reports whether either field was never filled in.
func (c Credentials) IsPlaceholder() bool {
	return c.Email == "" || c.Password == "" ||
		c.Email == PlaceholderEmail || c.Password == PlaceholderPassword
}

// String hides the password.
func (c Credentials) String() string {
	return c.Email + ":********"
}
