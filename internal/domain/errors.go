package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrEvaluation         = errors.New("falla interna de evaluación")
)

// ValidationError indica una factura estructuralmente inválida.
// Nombra el campo ofensivo (ej. "lines[2].quantity"); nunca se puntúa parcialmente.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// EvaluationError es una falla interna de un evaluador. Es fatal para la llamada
// a Analyze: el caller deja la factura en revisión manual, sin score.
type EvaluationError struct {
	Evaluator string
	Err       error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluador %s: %v", e.Evaluator, e.Err)
}

// Unwrap expone la causa; Is hace que errors.Is(err, ErrEvaluation) sea verdadero.
func (e *EvaluationError) Unwrap() error { return e.Err }

func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }
