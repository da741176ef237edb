// Package domain contains core domain types for the EduBot application.
package domain

// User represents a registered account. Records are keyed by Email and are
// never mutated after registration.
type User struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Account is the public projection of a User returned to clients.
type Account struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Account returns the public view of the user.
func (u *User) Account() Account {
	return Account{
		Username: u.Username,
		Email:    u.Email,
	}
}

// PasswordMatches reports whether password is byte-equal to the stored secret.
func (u *User) PasswordMatches(password string) bool {
	return u.Password == password
}
