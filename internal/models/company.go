package models

import "time"

// Company is an employer profile. Jobs may only be attached to companies an
// admin has approved and not banned. Deletion is soft.
type Company struct {
	ID                string     `json:"id"`
	Name              string     `json:"companyName"`
	Description       string     `json:"description"`
	Industry          string     `json:"industry"`
	Address           string     `json:"address"`
	NumberOfEmployees string     `json:"numberOfEmployees"`
	Email             string     `json:"companyEmail"`
	CreatedBy         string     `json:"createdBy"`
	Approved          bool       `json:"approvedByAdmin"`
	BannedAt          *time.Time `json:"bannedAt,omitempty"`
	DeletedAt         *time.Time `json:"deletedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsDeleted reports whether the company was soft deleted.
func (c *Company) IsDeleted() bool {
	return c.DeletedAt != nil
}

// IsBanned reports whether an admin has banned the company.
func (c *Company) IsBanned() bool {
	return c.BannedAt != nil
}

// CanHire reports whether jobs may be published for the company.
func (c *Company) CanHire() bool {
	return c.Approved && !c.IsBanned() && !c.IsDeleted()
}
