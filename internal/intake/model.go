package intake

import "time"

// ContactKind says which branch a contact value matched.
type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

// ContactRecord is the normalized result of an accepted intake submission.
type ContactRecord struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Name         string      `json:"name"`
	Address      string      `json:"address"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Zip          string      `json:"zip"`
	Contact      string      `json:"contact"`
	ContactKind  ContactKind `json:"contact_kind"`
	Contact2     string      `json:"contact2,omitempty"`
	Contact2Kind ContactKind `json:"contact2_kind,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// SubmitRequest carries the raw form fields as entered. Every field is
// trimmed before validation; Contact2 is the only optional one.
type SubmitRequest struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required,usstate"`
	Zip      string `json:"zip" validate:"required,uszip"`
	Contact  string `json:"contact" validate:"required,emailorphone"`
	Contact2 string `json:"contact2" validate:"omitempty,emailorphone"`
}

func (r SubmitRequest) sanitized() SubmitRequest {
	return SubmitRequest{
		Name:     trim(r.Name),
		Address:  trim(r.Address),
		City:     trim(r.City),
		State:    trim(r.State),
		Zip:      trim(r.Zip),
		Contact:  trim(r.Contact),
		Contact2: trim(r.Contact2),
	}
}
