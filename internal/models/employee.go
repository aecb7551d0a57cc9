package models

import "fmt"

// Employee represents a staff member of the company.
// Position is the job title (e.g. "Courier"); it is stored under the "role" key.
type Employee struct {
	ID       int64  `json:"id"`    // Unique identifier for the employee
	Name     string `json:"name"`  // Full name of the employee
	Email    string `json:"email"` // Email address, also the login of the mirrored user
	Position string `json:"role"`  // Job title of the employee
	Office   string `json:"office"`
	Phone    string `json:"phone"`
}

// Validate checks the fields every stored employee must carry.
func (e Employee) Validate() error {
	if e.ID == 0 {
		return fmt.Errorf("%w: employee without id", ErrValidation)
	}
	return nil
}

// Client represents a customer of the company.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate checks the fields every stored client must carry.
func (c Client) Validate() error {
	if c.ID == 0 {
		return fmt.Errorf("%w: client without id", ErrValidation)
	}
	return nil
}

// Office is standalone reference data used for display and filtering.
type Office struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Validate checks the fields every stored office must carry.
func (o Office) Validate() error {
	if o.ID == 0 {
		return fmt.Errorf("%w: office without id", ErrValidation)
	}
	return nil
}
