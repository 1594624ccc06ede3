package models

import (
	"strings"

	"grace/pkg/validation"
)

// Credential input rules. bcrypt ignores everything past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

const (
	MsgInvalidEmail      = "Please enter a valid email address."
	MsgShortPassword     = "Please enter a password with 8 or more characters."
	MsgLongPassword      = "Please enter a password with 72 or fewer characters."
	MsgMissingFirstName  = "Please enter your first name."
	MsgMissingLastName   = "Please enter your last name."
	MsgMissingIdentifier = "Please provide a valid user identifier."
)

var requestMessages = validation.Messages{
	"Email.required":     MsgInvalidEmail,
	"Email.email":        MsgInvalidEmail,
	"Email.max":          MsgInvalidEmail,
	"Password.required":  MsgShortPassword,
	"Password.min":       MsgShortPassword,
	"Password.max":       MsgLongPassword,
	"FirstName.notblank": MsgMissingFirstName,
	"LastName.notblank":  MsgMissingLastName,
}

// SignupRequest is the create-principal body.
type SignupRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"notblank,max=100"`
	LastName  string `json:"lastName" validate:"notblank,max=100"`
}

func (r *SignupRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *SignupRequest) Validate() error {
	return validation.Validate(r, requestMessages)
}

// SigninRequest carries email/password credentials. It is deliberately not
// validated here: every bad credential must look the same to the caller.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateRequest is the body of both update paths. Empty fields are absent.
// ID, Role and Status are read only on the administrator path.
type UpdateRequest struct {
	ID        string `json:"id,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password  string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	FirstName string `json:"firstName,omitempty" validate:"max=100"`
	LastName  string `json:"lastName,omitempty" validate:"max=100"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
}

func (r *UpdateRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Role = strings.TrimSpace(r.Role)
	r.Status = strings.TrimSpace(r.Status)
}

func (r *UpdateRequest) Validate() error {
	return validation.Validate(r, requestMessages)
}
