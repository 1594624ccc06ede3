package models

// Project maps a resolved principal to its external view. It reports false when
// id, first name or last name is missing, which means the request carries no
// fully resolved identity.
func Project(p *Principal) (*Profile, bool) {
	if p == nil || p.ID.IsNil() || p.FirstName == "" || p.LastName == "" {
		return nil, false
	}
	return &Profile{
		ID:         p.ID,
		ExternalID: p.ExternalID,
		Email:      p.Email,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Role:       p.Role,
		Status:     p.Status,
	}, true
}

// PrincipalView is a stored principal without its password hash, as listed to
// administrators.
type PrincipalView struct {
	Profile
	CreatedAt int64 `json:"createdAt"`
}

// NewPrincipalView drops the password hash from p.
func NewPrincipalView(p *Principal) PrincipalView {
	return PrincipalView{
		Profile: Profile{
			ID:         p.ID,
			ExternalID: p.ExternalID,
			Email:      p.Email,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Role:       p.Role,
			Status:     p.Status,
		},
		CreatedAt: p.CreatedAt.UnixMilli(),
	}
}
