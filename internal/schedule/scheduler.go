package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/auth"
	"github.com/massoterapia/backend/internal/notify"
	"github.com/massoterapia/backend/internal/repo"
)

// Scheduler é o núcleo de agendamento: validação de horário, serialização de
// conflitos e transições de status, tudo dentro de transações do banco.
// Notificações saem depois do commit e nunca desfazem a operação.
type Scheduler struct {
	DB          *gorm.DB
	Rules       Rules
	Clock       Clock
	Notifier    notify.Notifier
	ClinicEmail string
}

// BookResult é o resultado de um agendamento aceito. Aviso vem preenchido
// quando a operação foi concluída mas a notificação falhou.
type BookResult struct {
	Agendamento *repo.Agendamento
	Aviso       string
}

// TransitionResult é o resultado de uma transição de status aplicada.
type TransitionResult struct {
	Agendamento *repo.Agendamento
	Aviso       string
}

// Book valida e persiste um novo agendamento do cliente com o massoterapeuta
// no instante dado. O status inicial é pendente. Dois caminhos detectam
// conflito: a checagem dentro da transação (caso comum, mensagem rica) e a
// violação do índice único parcial (corrida entre inserções concorrentes).
func (s *Scheduler) Book(ctx context.Context, clienteID, massoterapeutaID int64, dataHora string, sintomas *string) (*BookResult, error) {
	t, err := ParseDateTime(dataHora, s.Rules.Zone)
	if err != nil {
		return nil, err
	}
	if err := s.Rules.Validate(t, s.Clock.Now()); err != nil {
		return nil, err
	}

	bloq := BlockingStrings()
	var criado *repo.Agendamento
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if conflito, err := repo.ConflitoMassoterapeuta(ctx, tx, massoterapeutaID, t, bloq); err != nil {
			return &StorageError{Op: "checar conflito do massoterapeuta", Err: err}
		} else if conflito != nil {
			return &ConflictError{Titular: "massoterapeuta", Agendamento: conflito}
		}
		if conflito, err := repo.ConflitoCliente(ctx, tx, clienteID, t, bloq); err != nil {
			return &StorageError{Op: "checar conflito do cliente", Err: err}
		} else if conflito != nil {
			return &ConflictError{Titular: "cliente", Agendamento: conflito}
		}
		a, err := repo.CreateAgendamento(ctx, tx, clienteID, massoterapeutaID, t, sintomas, string(StatusPendente))
		if err != nil {
			if isUniqueViolation(err) {
				return errConcorrencia
			}
			return &StorageError{Op: "inserir agendamento", Err: err}
		}
		criado = a
		return nil
	})
	if errors.Is(err, errConcorrencia) {
		// Perdemos a corrida para outra transação; reconsulta fora da
		// transação abortada para montar a mensagem de conflito.
		return nil, s.conflitoAposCorrida(ctx, clienteID, massoterapeutaID, t, bloq)
	}
	if err != nil {
		return nil, err
	}

	res := &BookResult{Agendamento: criado}
	res.Aviso = s.notificarCriacao(ctx, criado)
	return res, nil
}

// errConcorrencia é interno: marca a perda da corrida de inserção para a
// reconsulta pós-transação.
var errConcorrencia = errors.New("corrida de inserção")

func (s *Scheduler) conflitoAposCorrida(ctx context.Context, clienteID, massoterapeutaID int64, t time.Time, bloq []string) error {
	if conflito, err := repo.ConflitoMassoterapeuta(ctx, s.DB, massoterapeutaID, t, bloq); err == nil && conflito != nil {
		return &ConflictError{Titular: "massoterapeuta", Agendamento: conflito}
	}
	if conflito, err := repo.ConflitoCliente(ctx, s.DB, clienteID, t, bloq); err == nil && conflito != nil {
		return &ConflictError{Titular: "cliente", Agendamento: conflito}
	}
	// O vencedor já saiu do conjunto bloqueante (cancelou logo depois).
	// Ainda assim reportamos conflito: o chamador reexecuta se quiser o slot.
	return &ConflictError{Titular: "massoterapeuta"}
}

// Transition aplica a mudança de status id → to em nome do ator. O registro é
// carregado com lock de linha e escopado pelo dono, então duas transições
// concorrentes se serializam e a segunda enxerga o status final da primeira.
func (s *Scheduler) Transition(ctx context.Context, id int64, actor Actor, to Status, motivo string) (*TransitionResult, error) {
	coluna := "cliente_id"
	if actor.Role == auth.RoleMassoterapeuta {
		coluna = "massoterapeuta_id"
	}

	var atualizado *repo.Agendamento
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		a, err := repo.AgendamentoDoAtorForUpdate(ctx, tx, id, coluna, actor.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return &StorageError{Op: "carregar agendamento", Err: err}
		}
		from, err := ParseStatus(a.Status)
		if err != nil {
			return &StorageError{Op: "ler status persistido", Err: err}
		}
		if err := Transition(from, to, actor, motivo); err != nil {
			return err
		}
		if err := repo.UpdateStatusAgendamento(ctx, tx, id, string(to)); err != nil {
			return &StorageError{Op: "atualizar status", Err: err}
		}
		var motivoPtr *string
		if motivo != "" {
			motivoPtr = &motivo
		}
		// A trilha é auditoria, não fonte de verdade; não desfaz a transição.
		// A transação aninhada vira SAVEPOINT, então um INSERT que falhe não
		// aborta a transação de fora e o UPDATE de status ainda commita.
		err = tx.Transaction(func(tx2 *gorm.DB) error {
			return repo.RegistrarHistorico(ctx, tx2, id, string(from), string(to), actor.Role, actor.ID, motivoPtr)
		})
		if err != nil {
			log.Printf("[schedule] falha ao registrar histórico do agendamento %d: %v", id, err)
		}
		a.Status = string(to)
		atualizado = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &TransitionResult{Agendamento: atualizado}
	res.Aviso = s.notificarTransicao(ctx, atualizado, actor, to, motivo)
	return res, nil
}

// notificarCriacao envia o email de "agendamento recebido" ao cliente.
// Melhor-esforço: falha vira aviso na resposta, nunca erro.
func (s *Scheduler) notificarCriacao(ctx context.Context, a *repo.Agendamento) string {
	if s.Notifier == nil {
		return ""
	}
	det, err := repo.BuscaDetalheAgendamento(ctx, s.DB, a.ID)
	if err != nil {
		log.Printf("[schedule] detalhe do agendamento %d para notificação: %v", a.ID, err)
		return "agendamento criado, mas o email de confirmação não pôde ser enviado"
	}
	corpo := fmt.Sprintf(
		"Olá %s,\n\nRecebemos seu agendamento com %s para %s.\nVocê receberá a confirmação em breve.\n\nAtenciosamente,\nClínica de Massoterapia",
		det.ClienteNome, det.MassoterapeutaNome, formatarDataHora(a.DataHora, s.Rules.Zone))
	r := s.Notifier.Notify(ctx, det.ClienteEmail, "Agendamento recebido", corpo)
	if !r.OK {
		log.Printf("[schedule] email de criação do agendamento %d: %s", a.ID, r.Detail)
		return "agendamento criado, mas o email de confirmação não pôde ser enviado"
	}
	return ""
}

// notificarTransicao dispara o aviso adequado ao novo status. Conclusão não
// notifica ninguém.
func (s *Scheduler) notificarTransicao(ctx context.Context, a *repo.Agendamento, actor Actor, to Status, motivo string) string {
	if s.Notifier == nil || to == StatusConcluido {
		return ""
	}
	det, err := repo.BuscaDetalheAgendamento(ctx, s.DB, a.ID)
	if err != nil {
		log.Printf("[schedule] detalhe do agendamento %d para notificação: %v", a.ID, err)
		return "status atualizado, mas o aviso por email não pôde ser enviado"
	}
	quando := formatarDataHora(a.DataHora, s.Rules.Zone)

	var dest, assunto, corpo string
	switch {
	case to == StatusConfirmado:
		dest = det.ClienteEmail
		assunto = "Consulta confirmada"
		corpo = fmt.Sprintf(
			"Olá %s,\n\nSua consulta com %s foi confirmada para %s.\n\nAté lá!\nClínica de Massoterapia",
			det.ClienteNome, det.MassoterapeutaNome, quando)
	case to == StatusCancelado && actor.Role == auth.RoleMassoterapeuta:
		dest = det.ClienteEmail
		assunto = "Consulta cancelada"
		corpo = fmt.Sprintf(
			"Olá %s,\n\nSua consulta de %s foi cancelada pelo massoterapeuta.\nMotivo: %s\n\nPara reagendar, fale com %s (%s) ou acesse o site.\n\nClínica de Massoterapia",
			det.ClienteNome, quando, motivo, det.MassoterapeutaNome, det.MassoterapeutaTelefone)
	case to == StatusCancelado:
		if s.ClinicEmail == "" {
			return ""
		}
		dest = s.ClinicEmail
		assunto = "Cancelamento de consulta"
		corpo = fmt.Sprintf(
			"O cliente %s (%s, %s) cancelou a consulta de %s com %s.",
			det.ClienteNome, det.ClienteEmail, det.ClienteTelefone, quando, det.MassoterapeutaNome)
	default:
		return ""
	}
	r := s.Notifier.Notify(ctx, dest, assunto, corpo)
	if !r.OK {
		log.Printf("[schedule] email de %s do agendamento %d: %s", to, a.ID, r.Detail)
		return "status atualizado, mas o aviso por email não pôde ser enviado"
	}
	return ""
}

func formatarDataHora(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02/01/2006 às 15:04")
}

// isUniqueViolation reconhece a violação de unique do Postgres (23505) por
// trás dos wrappers do driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
