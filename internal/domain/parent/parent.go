package parent

import (
	"errors"
	"strings"
	"time"
)

// DefaultLanguage is used for guardians without a stored preference.
const DefaultLanguage = "en"

var ErrParentNotFound = errors.New("parent not found")

// Parent is a guardian account. Language and PushToken are maintained by the
// mobile client.
type Parent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Language  string    `json:"language,omitempty"`
	PushToken string    `json:"pushToken,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeLanguage trims and lower-cases code, falling back to fallback when
// nothing is left.
func NormalizeLanguage(code, fallback string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return fallback
	}
	return code
}
