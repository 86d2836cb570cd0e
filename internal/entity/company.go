package entity

import (
	"time"

	"github.com/google/uuid"
)

// Email verification labels applied by the verifier. "200" mirrors the SMTP
// success code and marks a deliverable address; "BAD" is terminal.
const (
	VerificationDeliverable = "200"
	VerificationBad         = "BAD"
)

// Company represents one record of the Istanbul real estate contact
// directory. A record is unique by the (name, phone) pair.
type Company struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	Website           *string   `json:"website,omitempty"`
	Email             string    `json:"email"`
	EmailVerification *string   `json:"email_verification,omitempty"`
	Founder           *string   `json:"founder,omitempty"`
	District          string    `json:"district"`
	Source            string    `json:"source"`
	EmailSource       string    `json:"email_source"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Verified reports whether the record carries the deliverable label.
func (c *Company) Verified() bool {
	return c.EmailVerification != nil && *c.EmailVerification == VerificationDeliverable
}
