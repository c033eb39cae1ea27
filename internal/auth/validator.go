// File: internal/auth/validator.go
package auth

import (
	"regexp"

	"clinic_backend/internal/common"
)

// ValidationError reports the first rule a form violated, in declaration order.
// Message is user-facing Spanish copy returned verbatim by the handlers.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	dateOfBirthPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseRegister validates the raw registration form and returns the
// role-tagged request, or the first violation encountered. Shared rules run
// before role-specific ones.
func ParseRegister(form RegisterForm) (RegisterRequest, *ValidationError) {
	if verr := validateName(form.Name); verr != nil {
		return nil, verr
	}
	if verr := validateEmail(form.Email); verr != nil {
		return nil, verr
	}
	if verr := validateUsername(form.Username); verr != nil {
		return nil, verr
	}
	if verr := validatePassword(form.Password); verr != nil {
		return nil, verr
	}

	base := RegistrationBase{
		Name:     form.Name,
		Email:    form.Email,
		Username: form.Username,
		Password: form.Password,
	}

	switch form.Role {
	case common.RoleMedic:
		if len([]rune(form.Specialty)) < 3 {
			return nil, &ValidationError{Field: "specialty", Message: "La especialidad debe tener al menos 3 caracteres."}
		}
		return MedicRegistration{RegistrationBase: base, Specialty: form.Specialty}, nil
	case common.RolePatient:
		if !dateOfBirthPattern.MatchString(form.DateOfBirth) {
			return nil, &ValidationError{Field: "dateOfBirth", Message: "Fecha inválida (Debe ser YYYY-MM-DD)"}
		}
		return PatientRegistration{RegistrationBase: base, DateOfBirth: form.DateOfBirth}, nil
	case common.RoleAdmin:
		return AdminRegistration{RegistrationBase: base}, nil
	default:
		return nil, &ValidationError{Field: "role", Message: "El rol especificado no es válido"}
	}
}

// ParseLogin validates the login form.
func ParseLogin(form LoginForm) (*LoginRequest, *ValidationError) {
	if !emailPattern.MatchString(form.Email) {
		return nil, &ValidationError{Field: "email", Message: "Correo inválido"}
	}
	if len([]rune(form.Password)) < 6 {
		return nil, &ValidationError{Field: "password", Message: "La contraseña debe tener al menos 6 caracteres"}
	}
	return &LoginRequest{Email: form.Email, Password: form.Password}, nil
}

func validateName(name string) *ValidationError {
	n := len([]rune(name))
	if n < 3 {
		return &ValidationError{Field: "name", Message: "El nombre debe tener al menos 3 caracteres"}
	}
	if n > 50 {
		return &ValidationError{Field: "name", Message: "El nombre no puede exceder los 50 caracteres"}
	}
	return nil
}

func validateEmail(email string) *ValidationError {
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Correo electrónico inválido"}
	}
	return nil
}

func validateUsername(username string) *ValidationError {
	n := len([]rune(username))
	if n < 3 {
		return &ValidationError{Field: "username", Message: "El nombre de usuario debe tener al menos 3 caracteres"}
	}
	if n > 50 {
		return &ValidationError{Field: "username", Message: "El nombre de usuario no puede exceder los 50 caracteres"}
	}
	return nil
}

// validatePassword enforces the composition policy: minimum length six with at
// least two uppercase letters, two lowercase letters, two digits and two
// special characters. Checks run in that order so the reported message is
// deterministic.
func validatePassword(password string) *ValidationError {
	runes := []rune(password)
	if len(runes) < 6 {
		return &ValidationError{Field: "password", Message: "La contraseña debe tener al menos 6 caracteres"}
	}

	var upper, lower, digit, special int
	for _, r := range runes {
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
		case r >= 'a' && r <= 'z':
			lower++
		case r >= '0' && r <= '9':
			digit++
		default:
			special++
		}
	}

	if upper < 2 {
		return &ValidationError{Field: "password", Message: "La contraseña debe contener al menos 2 letras mayúsculas"}
	}
	if lower < 2 {
		return &ValidationError{Field: "password", Message: "La contraseña debe contener al menos 2 letras minúsculas"}
	}
	if digit < 2 {
		return &ValidationError{Field: "password", Message: "La contraseña debe contener al menos 2 números"}
	}
	if special < 2 {
		return &ValidationError{Field: "password", Message: "La contraseña debe contener al menos 2 caracteres especiales"}
	}
	return nil
}
