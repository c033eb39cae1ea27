package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStubBackend serves a minimal auth API: one known user, bearer-token
// sessions, canned Spanish error copy.
func newStubBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	const validToken = "stub-session-token"

	authed := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+validToken
	}
	writeJSON := func(w http.ResponseWriter, status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var form struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&form)
		if form.Email != "ana@clinic.example" || form.Password != "AAbb12!!" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "La contraseña es incorrecta."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Usuario logueado exitosamente.",
			"user":    map[string]string{"uid": "u1", "email": form.Email, "displayName": "ana"},
			"token":   validToken,
		})
	})

	mux.HandleFunc("/api/auth/check-auth", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No está autenticado"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"uid": "u1", "email": "ana@clinic.example", "role": "medic",
			"name": "Ana", "username": "ana", "specialty": "Cardiología",
		})
	})

	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Sesión cerrada exitosamente."})
	})

	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var form map[string]string
		_ = json.NewDecoder(r.Body).Decode(&form)
		if form["name"] == "Jo" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "El nombre debe tener al menos 3 caracteres"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"message": "Usuario creado exitosamente. Por favor verifica tu correo electrónico.",
		})
	})

	mux.HandleFunc("/api/auth/recover-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Se ha enviado un enlace de recuperación a tu correo electrónico.",
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_BootstrapAnonymous(t *testing.T) {
	server := newStubBackend(t)
	c := New(server.URL, server.Client())

	assert.True(t, c.Loading())
	c.Bootstrap(context.Background())

	assert.False(t, c.Loading())
	assert.Nil(t, c.User())
	assert.False(t, c.IsAuthenticated())
}

func TestClient_LoginLogoutRoundTrip(t *testing.T) {
	server := newStubBackend(t)
	c := New(server.URL, server.Client())
	ctx := context.Background()

	user, err := c.Login(ctx, "ana@clinic.example", "AAbb12!!")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UID)
	assert.Equal(t, "medic", user.Role)
	assert.True(t, c.IsAuthenticated())
	assert.NoError(t, c.Err())

	// The stored token authenticates subsequent calls.
	refreshed, err := c.CheckAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Cardiología", refreshed.Specialty)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.IsAuthenticated())

	_, err = c.CheckAuth(ctx)
	require.Error(t, err)
	assert.Equal(t, "No está autenticado", ErrorMessage(err))
}

func TestClient_LoginFailureKeepsUserAndSetsErr(t *testing.T) {
	server := newStubBackend(t)
	c := New(server.URL, server.Client())
	ctx := context.Background()

	_, err := c.Login(ctx, "ana@clinic.example", "wrong!")
	require.Error(t, err)
	assert.Nil(t, c.User())
	assert.Equal(t, "La contraseña es incorrecta.", ErrorMessage(c.Err()))

	var apiErr *APIMessageError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_RegisterSurfacesValidationMessage(t *testing.T) {
	server := newStubBackend(t)
	c := New(server.URL, server.Client())
	ctx := context.Background()

	err := c.Register(ctx, RegisterInput{Role: "admin", Name: "Jo"})
	require.Error(t, err)
	assert.Equal(t, "El nombre debe tener al menos 3 caracteres", ErrorMessage(c.Err()))

	require.NoError(t, c.Register(ctx, RegisterInput{
		Role: "admin", Name: "Ana Ruiz", Email: "ana@clinic.example",
		Username: "anaruiz", Password: "AAbb12!!",
	}))
	assert.NoError(t, c.Err())
}

func TestClient_RecoverPasswordPreservesErr(t *testing.T) {
	server := newStubBackend(t)
	c := New(server.URL, server.Client())
	ctx := context.Background()

	// Leave a failed login error behind, then recover: the error survives.
	_, err := c.Login(ctx, "ana@clinic.example", "wrong!")
	require.Error(t, err)
	require.Error(t, c.Err())

	require.NoError(t, c.RecoverPassword(ctx, "ana@clinic.example"))
	assert.Error(t, c.Err())
}
