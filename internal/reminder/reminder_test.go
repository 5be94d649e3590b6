package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/repo"
)

func TestSendLembretes_DBNil(t *testing.T) {
	ctx := context.Background()
	dia := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
	sent, skipped := SendLembretes(ctx, nil, dia, nil)
	if sent != 0 || skipped != 0 {
		t.Errorf("db nil: got sent=%d skipped=%d, want 0,0", sent, skipped)
	}
}

func TestSendLembretesWithLister_ListerReturnsError(t *testing.T) {
	ctx := context.Background()
	dia := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
	lister := &mockLister{err: errors.New("db error")}
	sender := &mockSender{failIndex: -1}
	sent, skipped := SendLembretesWithLister(ctx, nil, dia, sender, lister)
	if sent != 0 || skipped != 0 {
		t.Errorf("lister error: got sent=%d skipped=%d, want 0,0", sent, skipped)
	}
}

func TestSendLembretesWithLister_SenderNil_CountsSkipped(t *testing.T) {
	ctx := context.Background()
	dia := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
	rows := []repo.LembreteRow{
		{AgendamentoID: 1, ClienteID: 10, ClienteNome: "Maria", ClienteTelefone: "+5511999990000", DataHora: dia.Add(10 * time.Hour)},
		{AgendamentoID: 2, ClienteID: 11, ClienteNome: "João", ClienteTelefone: "+5511888880000", DataHora: dia.Add(11 * time.Hour)},
	}
	lister := &mockLister{rows: rows}
	sent, skipped := SendLembretesWithLister(ctx, nil, dia, nil, lister)
	if sent != 0 || skipped != 2 {
		t.Errorf("sender nil: got sent=%d skipped=%d, want 0,2", sent, skipped)
	}
}

func TestSendLembretesWithLister_AllSent(t *testing.T) {
	ctx := context.Background()
	dia := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
	rows := []repo.LembreteRow{
		{AgendamentoID: 1, ClienteID: 10, ClienteNome: "Maria", ClienteTelefone: "+5511999990000", DataHora: dia.Add(14*time.Hour + 30*time.Minute)},
		{AgendamentoID: 2, ClienteID: 11, ClienteNome: "João", ClienteTelefone: "+5511888880000", DataHora: dia.Add(9 * time.Hour)},
	}
	lister := &mockLister{rows: rows}
	sender := &mockSender{failIndex: -1} // nenhuma falha
	sent, skipped := SendLembretesWithLister(ctx, nil, dia, sender, lister)
	if sent != 2 || skipped != 0 {
		t.Errorf("all sent: got sent=%d skipped=%d, want 2,0", sent, skipped)
	}
	if len(sender.calls) != 2 {
		t.Fatalf("sender calls: got %d, want 2", len(sender.calls))
	}
	wantDateStr := "12/02/2026"
	wantTimes := []string{"14:30", "09:00"}
	for i, c := range sender.calls {
		if c.dateStr != wantDateStr {
			t.Errorf("call %d dateStr: got %q, want %q", i, c.dateStr, wantDateStr)
		}
		if c.timeStr != wantTimes[i] {
			t.Errorf("call %d timeStr: got %q, want %q", i, c.timeStr, wantTimes[i])
		}
		if c.clienteNome != rows[i].ClienteNome || c.phone != rows[i].ClienteTelefone {
			t.Errorf("call %d: phone=%q cliente=%q", i, c.phone, c.clienteNome)
		}
	}
}

func TestSendLembretesWithLister_HoraNoFusoDaClinica(t *testing.T) {
	ctx := context.Background()
	sp, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	dia := time.Date(2026, 2, 12, 0, 0, 0, 0, sp)
	// O banco entrega o instante em UTC: 13:00Z é 10:00 em São Paulo.
	rows := []repo.LembreteRow{
		{AgendamentoID: 1, ClienteNome: "Maria", ClienteTelefone: "+5511999990000", DataHora: time.Date(2026, 2, 12, 13, 0, 0, 0, time.UTC)},
	}
	lister := &mockLister{rows: rows}
	sender := &mockSender{failIndex: -1}
	sent, _ := SendLembretesWithLister(ctx, nil, dia, sender, lister)
	if sent != 1 {
		t.Fatalf("sent: got %d, want 1", sent)
	}
	if got := sender.calls[0].timeStr; got != "10:00" {
		t.Errorf("timeStr: got %q, want %q", got, "10:00")
	}
	if got := sender.calls[0].dateStr; got != "12/02/2026" {
		t.Errorf("dateStr: got %q, want %q", got, "12/02/2026")
	}
}

func TestSendLembretesWithLister_PartialFail(t *testing.T) {
	ctx := context.Background()
	dia := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
	rows := []repo.LembreteRow{
		{AgendamentoID: 1, ClienteNome: "Maria", ClienteTelefone: "+5511999990000", DataHora: dia.Add(10 * time.Hour)},
		{AgendamentoID: 2, ClienteNome: "João", ClienteTelefone: "+5511888880000", DataHora: dia.Add(11 * time.Hour)},
		{AgendamentoID: 3, ClienteNome: "Pedro", ClienteTelefone: "+5511777770000", DataHora: dia.Add(12 * time.Hour)},
	}
	lister := &mockLister{rows: rows}
	// Falha na segunda chamada (índice 1)
	sender := &mockSender{failIndex: 1}
	sent, skipped := SendLembretesWithLister(ctx, nil, dia, sender, lister)
	if sent != 2 || skipped != 1 {
		t.Errorf("partial fail: got sent=%d skipped=%d, want 2,1", sent, skipped)
	}
}

func TestDefaultWhatsAppSender_NilWhenEmpty(t *testing.T) {
	if DefaultWhatsAppSender("", "token", "from") != nil {
		t.Error("expected nil when accountSid empty")
	}
	if DefaultWhatsAppSender("sid", "", "from") != nil {
		t.Error("expected nil when authToken empty")
	}
	if DefaultWhatsAppSender("sid", "token", "") != nil {
		t.Error("expected nil when from empty")
	}
}

func TestDefaultWhatsAppSender_NonNilWhenConfigured(t *testing.T) {
	c := DefaultWhatsAppSender("sid", "token", "whatsapp:+15551234567")
	if c == nil {
		t.Error("expected non-nil client when all params set")
	}
}

// mockLister implementa AgendamentoLister para testes.
type mockLister struct {
	rows []repo.LembreteRow
	err  error
}

func (m *mockLister) AgendamentosParaLembrete(_ context.Context, _ *gorm.DB, _ time.Time) ([]repo.LembreteRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

// mockSender implementa WhatsAppSender e grava as chamadas.
type mockSender struct {
	calls     []sendCall
	failIndex int // índice da chamada que deve falhar (-1 = nenhuma)
}

type sendCall struct {
	phone, clienteNome, dateStr, timeStr string
}

func (m *mockSender) SendReminder(phone, clienteNome, dateStr, timeStr string) error {
	m.calls = append(m.calls, sendCall{phone, clienteNome, dateStr, timeStr})
	if m.failIndex >= 0 && len(m.calls)-1 == m.failIndex {
		return errors.New("mock send error")
	}
	return nil
}
