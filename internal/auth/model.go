// File: internal/auth/model.go
package auth

import (
	"clinic_backend/internal/common"
	"clinic_backend/internal/profile"
)

// RegisterForm is the wire shape of a registration request. Every field is a
// plain string; ParseRegister turns it into the role-tagged RegisterRequest.
type RegisterForm struct {
	Role        string `json:"role"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	Specialty   string `json:"specialty"`
	DateOfBirth string `json:"dateOfBirth"`
}

// LoginForm is the wire shape of a login request.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RecoverForm is the wire shape of a password-recovery request.
type RecoverForm struct {
	Email string `json:"email" binding:"required,email"`
}

// RegistrationBase holds the fields common to every role.
type RegistrationBase struct {
	Name     string
	Email    string
	Username string
	Password string
}

// RegisterRequest is the validated, role-discriminated registration payload.
// Exactly one concrete type exists per role, so role-specific requirements are
// enforced by construction rather than by optional fields.
type RegisterRequest interface {
	Base() RegistrationBase
	Role() string
	// Profile builds the profile-store row for the freshly created identity.
	Profile(uid string) *profile.Profile
}

// PatientRegistration carries the patient-only dateOfBirth field.
type PatientRegistration struct {
	RegistrationBase
	DateOfBirth string
}

// MedicRegistration carries the medic-only specialty field.
type MedicRegistration struct {
	RegistrationBase
	Specialty string
}

// AdminRegistration has no role-specific fields.
type AdminRegistration struct {
	RegistrationBase
}

func (r PatientRegistration) Base() RegistrationBase { return r.RegistrationBase }
func (r PatientRegistration) Role() string           { return common.RolePatient }
func (r PatientRegistration) Profile(uid string) *profile.Profile {
	dob := r.DateOfBirth
	return &profile.Profile{
		UID:         uid,
		Email:       r.Email,
		Role:        common.RolePatient,
		Name:        r.Name,
		Username:    r.Username,
		DateOfBirth: &dob,
	}
}

func (r MedicRegistration) Base() RegistrationBase { return r.RegistrationBase }
func (r MedicRegistration) Role() string           { return common.RoleMedic }
func (r MedicRegistration) Profile(uid string) *profile.Profile {
	specialty := r.Specialty
	return &profile.Profile{
		UID:       uid,
		Email:     r.Email,
		Role:      common.RoleMedic,
		Name:      r.Name,
		Username:  r.Username,
		Specialty: &specialty,
	}
}

func (r AdminRegistration) Base() RegistrationBase { return r.RegistrationBase }
func (r AdminRegistration) Role() string           { return common.RoleAdmin }
func (r AdminRegistration) Profile(uid string) *profile.Profile {
	return &profile.Profile{
		UID:      uid,
		Email:    r.Email,
		Role:     common.RoleAdmin,
		Name:     r.Name,
		Username: r.Username,
	}
}

// LoginRequest is the validated login payload.
type LoginRequest struct {
	Email    string
	Password string
}
