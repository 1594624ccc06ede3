package models

// Patch is a sparse set of principal field updates. A nil field is left untouched.
// Values are built by the patch package and applied once by the store.
type Patch struct {
	PasswordHash *string
	Email        *string
	FirstName    *string
	LastName     *string
	Role         *Role
	Status       *Status
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.PasswordHash == nil && p.Email == nil && p.FirstName == nil &&
		p.LastName == nil && p.Role == nil && p.Status == nil
}

// Apply returns a copy of pr with the patch merged in.
func (p Patch) Apply(pr Principal) Principal {
	if p.PasswordHash != nil {
		pr.PasswordHash = *p.PasswordHash
	}
	if p.Email != nil {
		pr.Email = *p.Email
	}
	if p.FirstName != nil {
		pr.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		pr.LastName = *p.LastName
	}
	if p.Role != nil {
		pr.Role = *p.Role
	}
	if p.Status != nil {
		pr.Status = *p.Status
	}
	return pr
}
