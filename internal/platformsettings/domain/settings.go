package domain

// FlagUserCreated is set once the first user account has been persisted.
// It never goes back to false.
const FlagUserCreated = "USER_CREATED"

// Flag is a platform-wide key/value flag from the platform_flags table.
type Flag struct {
	ID    string
	Value string
}

// Bool interprets the flag value as a boolean ("true" or "1").
func (f *Flag) Bool() bool {
	if f == nil {
		return false
	}
	return f.Value == "true" || f.Value == "1"
}
