package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/experiencias-arroyo/sierra-explora/internal/eligibility"
	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/logging"
	"github.com/experiencias-arroyo/sierra-explora/internal/repository"
)

// Error codes of the {"error", "message"} body.  Validation failures add
// the eligibility code under "code".
const (
	codeBadRequest        = "bad_request"
	codeUnauthorized      = "unauthorized"
	codeForbidden         = "forbidden"
	codeNotFound          = "not_found"
	codeConflict          = "conflict"
	codeValidation        = "validation_failed"
	codeInvalidTransition = "invalid_transition"
	codeInternal          = "internal_error"
)

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, echo.Map{"error": code, "message": message})
}

// respondError translates domain and repository errors into HTTP
// responses.  Anything unrecognised is logged and reported as 500 without
// leaking details.
func respondError(c echo.Context, err error) error {
	if ve, ok := eligibility.AsValidation(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   codeValidation,
			"code":    ve.Code,
			"message": ve.Message,
		})
	}
	var te *lifecycle.TransitionError
	if errors.As(err, &te) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   codeInvalidTransition,
			"message": "La reservación ya no está pendiente y no puede cambiar de estado",
			"from":    te.From,
			"to":      te.To,
		})
	}
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return fail(c, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, codeForbidden, "No tienes permiso para realizar esta acción")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, codeNotFound, "Recurso no encontrado")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, codeConflict, "La operación entra en conflicto con el estado actual")
	}
	logging.FromContext(c.Request().Context()).WithError(err).WithField("route", c.Path()).Error("request failed")
	return fail(c, http.StatusInternalServerError, codeInternal, "Error interno, intenta de nuevo más tarde")
}
