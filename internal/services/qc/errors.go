package qc

import (
	"errors"
	"fmt"

	"github.com/xelth-com/cotaqc/internal/quality"
)

var (
	ErrNotFound          = errors.New("não encontrado")
	ErrIncomplete        = quality.ErrIncomplete
	ErrAlreadyCompleted  = errors.New("ja_concluida")
	ErrWorkOrderClosed   = errors.New("op_concluida")
	ErrSamplesExist      = errors.New("amostras_existentes")
	ErrEmptyPlan         = errors.New("plano_vazio")
	ErrDrawingArchived   = errors.New("desenho_arquivado")
	ErrDrawingReferenced = errors.New("desenho_referenciado")
	ErrDuplicate         = errors.New("duplicado")
	ErrNoDrawing         = errors.New("op_sem_desenho")
	ErrForeignReference  = errors.New("referencia_invalida")
)

// ValidationError reports bad input; handlers map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// ReferencedError carries how many work orders point at a drawing.
type ReferencedError struct {
	Count int64
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("%s: %d OP(s) vinculada(s)", ErrDrawingReferenced, e.Count)
}

func (e *ReferencedError) Unwrap() error { return ErrDrawingReferenced }
