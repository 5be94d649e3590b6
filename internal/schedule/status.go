package schedule

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/massoterapia/backend/internal/auth"
)

// Status de um agendamento. Os valores persistidos são os mesmos do sistema
// legado (pendente, marcado, confirmado, cancelado, concluido); "marcado" é
// um alias histórico de pendente em alguns fluxos e entra nas mesmas transições.
type Status string

const (
	StatusPendente   Status = "pendente"
	StatusMarcado    Status = "marcado"
	StatusConfirmado Status = "confirmado"
	StatusCancelado  Status = "cancelado"
	StatusConcluido  Status = "concluido"
)

// ParseStatus valida a string recebida na API.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.TrimSpace(strings.ToLower(s))) {
	case StatusPendente:
		return StatusPendente, nil
	case StatusMarcado:
		return StatusMarcado, nil
	case StatusConfirmado:
		return StatusConfirmado, nil
	case StatusCancelado:
		return StatusCancelado, nil
	case StatusConcluido:
		return StatusConcluido, nil
	}
	return "", fmt.Errorf("status inválido: %q", s)
}

// Blocking é o conjunto de status que contam para detecção de conflito de horário.
// Cancelado libera o slot; concluido nunca ocorre em instante futuro.
var Blocking = []Status{StatusPendente, StatusMarcado, StatusConfirmado}

// BlockingStrings devolve o conjunto bloqueante como strings para o repositório.
func BlockingStrings() []string {
	out := make([]string, len(Blocking))
	for i, s := range Blocking {
		out[i] = string(s)
	}
	return out
}

// Terminal informa se o status não admite mais transições.
func (s Status) Terminal() bool {
	return s == StatusCancelado || s == StatusConcluido
}

// Actor é a identidade autenticada que executa a transição, fornecida pela
// camada de auth; o core confia no id sem revalidar credenciais.
type Actor struct {
	ID   int64
	Role string
}

const motivoMinimo = 10

// Transition decide a legalidade de from → to para o ator dado. Toda checagem
// de status do sistema mora aqui; nenhum outro pacote compara strings de status.
func Transition(from, to Status, actor Actor, motivo string) error {
	if from.Terminal() {
		return &TerminalStateError{From: from}
	}
	switch {
	case (from == StatusPendente || from == StatusMarcado) && to == StatusConfirmado:
		if actor.Role != auth.RoleMassoterapeuta {
			return ErrNotFound
		}
		return nil
	case (from == StatusPendente || from == StatusMarcado) && to == StatusCancelado:
		if actor.Role == auth.RoleMassoterapeuta {
			return validarMotivo(motivo)
		}
		if actor.Role == auth.RoleCliente {
			return nil
		}
		return ErrNotFound
	case from == StatusConfirmado && to == StatusCancelado:
		if actor.Role != auth.RoleMassoterapeuta {
			return ErrNotFound
		}
		return validarMotivo(motivo)
	case from == StatusConfirmado && to == StatusConcluido:
		if actor.Role != auth.RoleMassoterapeuta {
			return ErrNotFound
		}
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}

func validarMotivo(motivo string) error {
	if utf8.RuneCountInString(strings.TrimSpace(motivo)) < motivoMinimo {
		return ErrMotivoObrigatorio
	}
	return nil
}
