package client

import (
	"errors"
	"net/http"
)

const (
	msgTransition = "Esta reservación ya fue procesada y no puede cambiar de estado. La lista se actualizó."
	msgNetwork    = "No pudimos comunicarnos con el servidor. Revisa tu conexión e inténtalo de nuevo."
	msgCanceled   = "La operación fue cancelada."
	msgSession    = "Tu sesión expiró. Inicia sesión de nuevo."
	msgForbidden  = "No tienes permiso para realizar esta acción."
	msgNotFound   = "La reservación ya no existe."
	msgUnexpected = "Ocurrió un error inesperado. Inténtalo de nuevo."
)

// UserMessage turns an error from this package into text for end users.
// Validation messages are shown as the rules wrote them.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		te *TransitionError
		ne *NetworkError
		ae *APIError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &te):
		return msgTransition
	case errors.As(err, &ne):
		if ne.Canceled() {
			return msgCanceled
		}
		return msgNetwork
	case errors.As(err, &ae):
		switch ae.Status {
		case http.StatusUnauthorized:
			return msgSession
		case http.StatusForbidden:
			return msgForbidden
		case http.StatusNotFound:
			return msgNotFound
		}
		if ae.Message != "" {
			return ae.Message
		}
	}
	return msgUnexpected
}
