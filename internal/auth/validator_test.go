package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm(role string) RegisterForm {
	form := RegisterForm{
		Role:     role,
		Name:     "Laura Gómez",
		Email:    "laura@clinic.example",
		Username: "lauragomez",
		Password: "AAbb12!!",
	}
	switch role {
	case "medic":
		form.Specialty = "Cardiología"
	case "patient":
		form.DateOfBirth = "1990-04-23"
	}
	return form
}

func TestParseRegister_ValidForms(t *testing.T) {
	medic, verr := ParseRegister(validForm("medic"))
	require.Nil(t, verr)
	require.IsType(t, MedicRegistration{}, medic)
	assert.Equal(t, "medic", medic.Role())

	patient, verr := ParseRegister(validForm("patient"))
	require.Nil(t, verr)
	require.IsType(t, PatientRegistration{}, patient)
	assert.Equal(t, "patient", patient.Role())

	admin, verr := ParseRegister(validForm("admin"))
	require.Nil(t, verr)
	require.IsType(t, AdminRegistration{}, admin)
	assert.Equal(t, "admin", admin.Role())
}

func TestParseRegister_FirstViolationWins(t *testing.T) {
	// Both the name and the password are invalid; the name rule is declared
	// first so its message is the one reported.
	form := validForm("admin")
	form.Name = "Al"
	form.Password = "short"

	_, verr := ParseRegister(form)
	require.NotNil(t, verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, "El nombre debe tener al menos 3 caracteres", verr.Message)
}

func TestParseRegister_FieldRules(t *testing.T) {
	longString := make([]byte, 51)
	for i := range longString {
		longString[i] = 'a'
	}

	tests := []struct {
		name        string
		mutate      func(*RegisterForm)
		wantField   string
		wantMessage string
	}{
		{
			name:        "name too short",
			mutate:      func(f *RegisterForm) { f.Name = "Jo" },
			wantField:   "name",
			wantMessage: "El nombre debe tener al menos 3 caracteres",
		},
		{
			name:        "name too long",
			mutate:      func(f *RegisterForm) { f.Name = string(longString) },
			wantField:   "name",
			wantMessage: "El nombre no puede exceder los 50 caracteres",
		},
		{
			name:        "invalid email",
			mutate:      func(f *RegisterForm) { f.Email = "not-an-email" },
			wantField:   "email",
			wantMessage: "Correo electrónico inválido",
		},
		{
			name:        "username too short",
			mutate:      func(f *RegisterForm) { f.Username = "ab" },
			wantField:   "username",
			wantMessage: "El nombre de usuario debe tener al menos 3 caracteres",
		},
		{
			name:        "password too short",
			mutate:      func(f *RegisterForm) { f.Password = "Ab1!" },
			wantField:   "password",
			wantMessage: "La contraseña debe tener al menos 6 caracteres",
		},
		{
			name:        "password missing uppercase",
			mutate:      func(f *RegisterForm) { f.Password = "aabb12!!" },
			wantField:   "password",
			wantMessage: "La contraseña debe contener al menos 2 letras mayúsculas",
		},
		{
			name:        "password missing lowercase",
			mutate:      func(f *RegisterForm) { f.Password = "AABB12!!" },
			wantField:   "password",
			wantMessage: "La contraseña debe contener al menos 2 letras minúsculas",
		},
		{
			name:        "password missing digits",
			mutate:      func(f *RegisterForm) { f.Password = "AAbbcc!!" },
			wantField:   "password",
			wantMessage: "La contraseña debe contener al menos 2 números",
		},
		{
			name:        "password missing specials",
			mutate:      func(f *RegisterForm) { f.Password = "AAbb1234" },
			wantField:   "password",
			wantMessage: "La contraseña debe contener al menos 2 caracteres especiales",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm("admin")
			tt.mutate(&form)

			_, verr := ParseRegister(form)
			require.NotNil(t, verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, tt.wantMessage, verr.Message)
		})
	}
}

func TestParseRegister_UnderscoreCountsAsSpecial(t *testing.T) {
	form := validForm("admin")
	form.Password = "AAbb12__"

	_, verr := ParseRegister(form)
	assert.Nil(t, verr)
}

func TestParseRegister_RoleSpecificRules(t *testing.T) {
	medicForm := validForm("medic")
	medicForm.Specialty = "ab"
	_, verr := ParseRegister(medicForm)
	require.NotNil(t, verr)
	assert.Equal(t, "specialty", verr.Field)
	assert.Equal(t, "La especialidad debe tener al menos 3 caracteres.", verr.Message)

	patientForm := validForm("patient")
	patientForm.DateOfBirth = "23/04/1990"
	_, verr = ParseRegister(patientForm)
	require.NotNil(t, verr)
	assert.Equal(t, "dateOfBirth", verr.Field)
	assert.Equal(t, "Fecha inválida (Debe ser YYYY-MM-DD)", verr.Message)

	// A medic form is not allowed to satisfy the patient rule instead.
	crossForm := validForm("medic")
	crossForm.Specialty = ""
	crossForm.DateOfBirth = "1990-04-23"
	_, verr = ParseRegister(crossForm)
	require.NotNil(t, verr)
	assert.Equal(t, "specialty", verr.Field)
}

func TestParseRegister_UnknownRole(t *testing.T) {
	form := validForm("admin")
	form.Role = "nurse"

	_, verr := ParseRegister(form)
	require.NotNil(t, verr)
	assert.Equal(t, "role", verr.Field)
}

func TestParseLogin(t *testing.T) {
	req, verr := ParseLogin(LoginForm{Email: "laura@clinic.example", Password: "secret1"})
	require.Nil(t, verr)
	assert.Equal(t, "laura@clinic.example", req.Email)

	_, verr = ParseLogin(LoginForm{Email: "nope", Password: "secret1"})
	require.NotNil(t, verr)
	assert.Equal(t, "Correo inválido", verr.Message)

	_, verr = ParseLogin(LoginForm{Email: "laura@clinic.example", Password: "12345"})
	require.NotNil(t, verr)
	assert.Equal(t, "La contraseña debe tener al menos 6 caracteres", verr.Message)
}
