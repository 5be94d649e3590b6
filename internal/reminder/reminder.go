package reminder

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/repo"
	"github.com/massoterapia/backend/internal/schedule"
	"github.com/massoterapia/backend/internal/whatsapp"
)

// Só consultas ainda de pé recebem lembrete; pendentes aguardam confirmação
// e não entram.
var statusLembrete = []string{string(schedule.StatusMarcado), string(schedule.StatusConfirmado)}

// WhatsAppSender sends a reminder to a phone number.
type WhatsAppSender interface {
	SendReminder(phone, clienteNome, dateStr, timeStr string) error
}

// AgendamentoLister returns appointments for reminder on a given date. Used in tests with a mock; in production pass nil to use repo.
type AgendamentoLister interface {
	AgendamentosParaLembrete(ctx context.Context, db *gorm.DB, dia time.Time) ([]repo.LembreteRow, error)
}

// SendLembretes loads appointments for the given date (tomorrow in practice), then sends
// one WhatsApp reminder per appointment with a client phone. Failures per recipient are
// logged and do not stop the rest.
func SendLembretes(ctx context.Context, db *gorm.DB, dia time.Time, sender WhatsAppSender) (sent int, skipped int) {
	return SendLembretesWithLister(ctx, db, dia, sender, nil)
}

// SendLembretesWithLister is like SendLembretes but accepts an optional lister for tests. If lister is nil, repo is used (and db must be non-nil).
func SendLembretesWithLister(ctx context.Context, db *gorm.DB, dia time.Time, sender WhatsAppSender, lister AgendamentoLister) (sent int, skipped int) {
	if db == nil && lister == nil {
		log.Printf("[reminder] db is nil and no lister, skipping")
		return 0, 0
	}
	var rows []repo.LembreteRow
	var err error
	if lister != nil {
		rows, err = lister.AgendamentosParaLembrete(ctx, db, dia)
	} else {
		rows, err = repo.AgendamentosParaLembrete(ctx, db, dia, statusLembrete)
	}
	if err != nil {
		log.Printf("[reminder] AgendamentosParaLembrete: %v", err)
		return 0, 0
	}
	if sender == nil {
		log.Printf("[reminder] WhatsApp não configurado, enviaria %d lembretes", len(rows))
		return 0, len(rows)
	}
	dateStr := dia.Format("02/01/2006")
	for _, r := range rows {
		// O banco devolve o instante em UTC; a mensagem fala a hora local
		// da clínica, que é o fuso de "dia".
		timeStr := r.DataHora.In(dia.Location()).Format("15:04")
		if err := sender.SendReminder(r.ClienteTelefone, r.ClienteNome, dateStr, timeStr); err != nil {
			log.Printf("[reminder] falha agendamento=%d cliente=%d phone=%s: %v", r.AgendamentoID, r.ClienteID, r.ClienteTelefone, err)
			skipped++
			continue
		}
		sent++
		log.Printf("[reminder] enviado agendamento=%d para %s", r.AgendamentoID, r.ClienteTelefone)
	}
	return sent, skipped
}

// DefaultWhatsAppSender returns a whatsapp.Client from the given config, or nil if not configured.
func DefaultWhatsAppSender(accountSid, authToken, from string) WhatsAppSender {
	if accountSid == "" || authToken == "" || from == "" {
		return nil
	}
	return whatsapp.NewClient(whatsapp.Config{
		AccountSid: accountSid,
		AuthToken:  authToken,
		From:       from,
	})
}
