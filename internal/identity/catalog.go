// File: internal/identity/catalog.go
package identity

// errorCatalog maps provider error codes to the user-facing messages shown by the
// clinic frontend. Initialized once, never mutated.
var errorCatalog = map[string]string{
	"auth/email-already-in-use":    "El correo electrónico ya está en uso. Por favor intenta con otro.",
	"auth/user-not-found":          "El usuario no existe.",
	"auth/wrong-password":          "La contraseña es incorrecta.",
	"auth/email-already-exists":    "El correo electrónico ya está en uso.",
	"auth/weak-password":           "La contraseña debe tener al menos 6 caracteres.",
	"auth/invalid-email":           "El correo electrónico no es válido.",
	"auth/network-request-failed":  "Error de conexión. Verifica tu red e intenta nuevamente.",
	"auth/too-many-requests":       "Demasiados intentos. Intenta más tarde.",
	"auth/user-disabled":           "Este usuario ha sido deshabilitado.",
	"auth/operation-not-allowed":   "La autenticación por correo y contraseña no está habilitada.",
	"auth/requires-recent-login":   "Debes iniciar sesión nuevamente para realizar esta acción.",
	"auth/invalid-credential":      "Correo o contraseña incorrectos.",
	"auth/email-not-verified":      "Debes verificar tu correo electrónico antes de continuar.",
	"auth/profile-update-failed":   "No se pudo actualizar el perfil del usuario.",
	"auth/email-verification-sent": "Se ha enviado un correo de verificación. Revisa tu bandeja de entrada.",
	"auth/logout-success":          "Sesión cerrada exitosamente.",
	"auth/logout-failed":           "No se pudo cerrar la sesión. Intenta nuevamente.",

	// Profile-store error family, kept from the Firestore-backed variant.
	"firestore/permission-denied":  "No tienes permisos para realizar esta acción.",
	"firestore/document-not-found": "El documento solicitado no existe.",
	"firestore/invalid-data":       "Los datos proporcionados no son válidos.",
	"firestore/write-failed":       "No se pudo guardar la información. Intenta nuevamente.",
	"firestore/read-failed":        "No se pudo leer la información. Intenta nuevamente.",
	"firestore/not-found":          "El recurso solicitado no existe.",
	"firestore/invalid-argument":   "Los datos proporcionados son inválidos.",
	"firestore/unavailable":        "El servicio de Firestore no está disponible en este momento.",
	"firestore/internal":           "Ocurrió un error interno en Firestore.",
	"default":                      "Ocurrió un error inesperado al interactuar con Firestore.",
}

// CatalogMessage looks up the user-facing message for a provider error code.
func CatalogMessage(code string) (string, bool) {
	msg, ok := errorCatalog[code]
	return msg, ok
}

// MessageOrFallback resolves err to its catalog message when err carries a known
// provider code, otherwise returns the operation-specific fallback.
func MessageOrFallback(err error, fallback string) string {
	if code, ok := CodeOf(err); ok {
		if msg, found := CatalogMessage(code); found {
			return msg
		}
	}
	return fallback
}
