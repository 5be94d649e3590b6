package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/massoterapia/backend/internal/repo"
)

var (
	// ErrPastScheduling: agendamento para um instante anterior ao "agora" no fuso de referência.
	ErrPastScheduling = errors.New("não é possível agendar para horários passados")
	// ErrNotFound cobre tanto "não existe" quanto "não é seu"; a distinção não é exposta
	// para não revelar a existência de agendamentos de terceiros.
	ErrNotFound = errors.New("agendamento não encontrado")
	// ErrMotivoObrigatorio: cancelamento pelo massoterapeuta exige motivo com pelo menos 10 caracteres.
	ErrMotivoObrigatorio = errors.New("o motivo deve ter pelo menos 10 caracteres")
)

// InvalidTimeError indica entrada de data/hora que não casa com nenhum formato aceito.
type InvalidTimeError struct {
	Input string
}

func (e *InvalidTimeError) Error() string {
	return fmt.Sprintf("data_hora inválida: %q", e.Input)
}

// ClosedDayError indica dia da semana fora do funcionamento da clínica.
type ClosedDayError struct {
	Weekday time.Weekday
}

func (e *ClosedDayError) Error() string {
	return fmt.Sprintf("a clínica não atende em %s", diaSemanaPT(e.Weekday))
}

// ClosedHourError indica horário fora da janela de atendimento.
type ClosedHourError struct {
	Abertura string
	Encerra  string
}

func (e *ClosedHourError) Error() string {
	return fmt.Sprintf("horário fora do funcionamento da clínica (%s às %s)", e.Abertura, e.Encerra)
}

// ConflictError indica que o horário já está ocupado. Carrega o agendamento
// conflitante para a mensagem ao usuário.
type ConflictError struct {
	// Titular do conflito: "massoterapeuta" ou "cliente".
	Titular     string
	Agendamento *repo.Agendamento
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s já tem agendamento neste horário", e.Titular)
}

// TerminalStateError indica tentativa de transição a partir de status terminal.
type TerminalStateError struct {
	From Status
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("agendamento %s não pode mais ser alterado", e.From)
}

// InvalidTransitionError indica transição que não consta na tabela de transições legais.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transição de %s para %s não é permitida", e.From, e.To)
}

// StorageError encapsula falhas de transporte/transação do banco. O chamador
// pode reexecutar a operação inteira com segurança (a checagem de conflito roda de novo).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("falha de banco em %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func diaSemanaPT(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "domingo"
	case time.Monday:
		return "segunda-feira"
	case time.Tuesday:
		return "terça-feira"
	case time.Wednesday:
		return "quarta-feira"
	case time.Thursday:
		return "quinta-feira"
	case time.Friday:
		return "sexta-feira"
	default:
		return "sábado"
	}
}
