package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/farmmarket/backend/internal/domain/shared"
)

// Address is a postal address used for shipping and buyer profiles.
// It is stored as a JSON document column.
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Normalize trims every field
func (a Address) Normalize() Address {
	return Address{
		Name:       strings.TrimSpace(a.Name),
		Phone:      strings.TrimSpace(a.Phone),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		Region:     strings.TrimSpace(a.Region),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
	}
}

// IsEmpty reports whether no address line was provided
func (a Address) IsEmpty() bool {
	return a.Line1 == "" && a.City == ""
}

// Validate checks the fields needed to ship a parcel
func (a Address) Validate() error {
	a = a.Normalize()
	missing := make([]string, 0, 4)
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if a.Phone == "" {
		missing = append(missing, "phone")
	}
	if a.Line1 == "" {
		missing = append(missing, "line1")
	}
	if a.City == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address is missing: "+strings.Join(missing, ", "))
	}
	if len(a.Line1) > 200 || len(a.Line2) > 200 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address lines cannot exceed 200 characters")
	}
	if len(a.PostalCode) > 20 {
		return shared.NewDomainError("INVALID_ADDRESS", "Postal code cannot exceed 20 characters")
	}
	return nil
}

// String renders the address on one line
func (a Address) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.Region, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = Address{}
		return nil
	case string:
		if v == "" {
			*a = Address{}
			return nil
		}
		return json.Unmarshal([]byte(v), a)
	case []byte:
		if len(v) == 0 {
			*a = Address{}
			return nil
		}
		return json.Unmarshal(v, a)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
}
