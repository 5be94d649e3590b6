//go:build integration

package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/auth"
	"github.com/massoterapia/backend/internal/config"
	"github.com/massoterapia/backend/internal/repo"
	"github.com/massoterapia/backend/internal/testutil"
)

func openSchedulerForTest(t *testing.T) (*Scheduler, *gorm.DB) {
	t.Helper()
	db, url := testutil.OpenDB(context.Background())
	if db == nil {
		if url == "" {
			t.Skip("DATABASE_URL not set")
		}
		t.Fatalf("não conectou em %s", url)
	}
	if err := testutil.MustMigrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := &config.Config{
		AgendaTimezone: "America/Sao_Paulo",
		AgendaDias:     []int{1, 2, 3, 4},
		AgendaAbertura: "08:00",
		AgendaEncerra:  "18:00",
	}
	rules, err := RulesFromConfig(cfg)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	// Clock fixo num domingo para os slots de segunda serem futuros.
	clock := FixedClock{T: time.Date(2026, 2, 8, 12, 0, 0, 0, rules.Zone)}
	return &Scheduler{DB: db, Rules: rules, Clock: clock}, db
}

func criarContas(t *testing.T, db *gorm.DB) (clienteID, massoID int64) {
	t.Helper()
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	c, err := repo.CreateCliente(ctx, db, "Cliente Teste", "+5511999990000", "F", nil, "cliente"+suffix+"@teste.local", "hash")
	if err != nil {
		t.Fatalf("CreateCliente: %v", err)
	}
	m, err := repo.CreateMassoterapeuta(ctx, db, "Masso Teste", "+5511888880000", "masso"+suffix+"@teste.local", "hash")
	if err != nil {
		t.Fatalf("CreateMassoterapeuta: %v", err)
	}
	return c.ID, m.ID
}

func TestIntegration_BookEConflito(t *testing.T) {
	s, db := openSchedulerForTest(t)
	ctx := context.Background()
	clienteID, massoID := criarContas(t, db)

	res, err := s.Book(ctx, clienteID, massoID, "2026-02-09T10:00", nil)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if res.Agendamento.Status != string(StatusPendente) {
		t.Errorf("status inicial: got %s, want pendente", res.Agendamento.Status)
	}

	// Mesmo slot, outro cliente: conflito do massoterapeuta.
	outroCliente, _ := criarContas(t, db)
	_, err = s.Book(ctx, outroCliente, massoID, "2026-02-09T10:00", nil)
	var conflito *ConflictError
	if !errors.As(err, &conflito) {
		t.Fatalf("esperado ConflictError, got %v", err)
	}
	if conflito.Titular != "massoterapeuta" {
		t.Errorf("titular do conflito: got %s", conflito.Titular)
	}

	// Mesmo cliente, outro massoterapeuta, mesmo horário: conflito do cliente.
	_, outroMasso := criarContas(t, db)
	_, err = s.Book(ctx, clienteID, outroMasso, "2026-02-09T10:00", nil)
	if !errors.As(err, &conflito) {
		t.Fatalf("esperado ConflictError do cliente, got %v", err)
	}
	if conflito.Titular != "cliente" {
		t.Errorf("titular do conflito: got %s", conflito.Titular)
	}
}

func TestIntegration_CorridaDeInsercao(t *testing.T) {
	s, db := openSchedulerForTest(t)
	ctx := context.Background()
	massoID := int64(0)
	const n = 8
	clientes := make([]int64, n)
	for i := range clientes {
		cID, mID := criarContas(t, db)
		clientes[i] = cID
		if massoID == 0 {
			massoID = mID
		}
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Book(ctx, clientes[i], massoID, "2026-02-09T14:00", nil)
		}(i)
	}
	wg.Wait()

	ok := 0
	for i, err := range results {
		if err == nil {
			ok++
			continue
		}
		var conflito *ConflictError
		if !errors.As(err, &conflito) {
			t.Errorf("goroutine %d: esperado nil ou ConflictError, got %v", i, err)
		}
	}
	if ok != 1 {
		t.Errorf("exatamente um agendamento deveria vencer a corrida, got %d", ok)
	}
}

func TestIntegration_CancelamentoLiberaSlot(t *testing.T) {
	s, db := openSchedulerForTest(t)
	ctx := context.Background()
	clienteID, massoID := criarContas(t, db)

	res, err := s.Book(ctx, clienteID, massoID, "2026-02-10T09:00", nil)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	ator := Actor{ID: clienteID, Role: auth.RoleCliente}
	if _, err := s.Transition(ctx, res.Agendamento.ID, ator, StatusCancelado, ""); err != nil {
		t.Fatalf("Transition cancelar: %v", err)
	}

	// O slot liberou para outro cliente.
	outroCliente, _ := criarContas(t, db)
	if _, err := s.Book(ctx, outroCliente, massoID, "2026-02-10T09:00", nil); err != nil {
		t.Fatalf("rebook após cancelamento: %v", err)
	}
}

func TestIntegration_TransicaoEscopadaPeloDono(t *testing.T) {
	s, db := openSchedulerForTest(t)
	ctx := context.Background()
	clienteID, massoID := criarContas(t, db)
	_, outroMasso := criarContas(t, db)

	res, err := s.Book(ctx, clienteID, massoID, "2026-02-11T11:00", nil)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// Outro massoterapeuta não enxerga o agendamento.
	intruso := Actor{ID: outroMasso, Role: auth.RoleMassoterapeuta}
	if _, err := s.Transition(ctx, res.Agendamento.ID, intruso, StatusConfirmado, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("esperado ErrNotFound para outro massoterapeuta, got %v", err)
	}

	// O dono confirma e depois conclui.
	dono := Actor{ID: massoID, Role: auth.RoleMassoterapeuta}
	tr, err := s.Transition(ctx, res.Agendamento.ID, dono, StatusConfirmado, "")
	if err != nil {
		t.Fatalf("confirmar: %v", err)
	}
	if tr.Agendamento.Status != string(StatusConfirmado) {
		t.Errorf("status: got %s", tr.Agendamento.Status)
	}
	if _, err := s.Transition(ctx, res.Agendamento.ID, dono, StatusConcluido, ""); err != nil {
		t.Fatalf("concluir: %v", err)
	}

	// Terminal: nada mais muda.
	_, err = s.Transition(ctx, res.Agendamento.ID, dono, StatusCancelado, "motivo longo o bastante")
	var terminal *TerminalStateError
	if !errors.As(err, &terminal) {
		t.Errorf("esperado TerminalStateError, got %v", err)
	}
}

func TestIntegration_TrilhaIndisponivelNaoDesfazTransicao(t *testing.T) {
	s, db := openSchedulerForTest(t)
	ctx := context.Background()
	clienteID, massoID := criarContas(t, db)

	res, err := s.Book(ctx, clienteID, massoID, "2026-02-12T09:00", nil)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// Derruba todo INSERT na trilha para simular a tabela indisponível.
	err = db.Exec(`
		CREATE OR REPLACE FUNCTION bloqueia_trilha_teste() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'trilha indisponivel';
		END $$ LANGUAGE plpgsql
	`).Error
	if err != nil {
		t.Fatalf("criar função de bloqueio: %v", err)
	}
	err = db.Exec(`
		CREATE TRIGGER trg_bloqueia_trilha BEFORE INSERT ON agendamento_historico
		FOR EACH ROW EXECUTE FUNCTION bloqueia_trilha_teste()
	`).Error
	if err != nil {
		t.Fatalf("criar trigger de bloqueio: %v", err)
	}
	defer func() {
		_ = db.Exec(`DROP TRIGGER IF EXISTS trg_bloqueia_trilha ON agendamento_historico`).Error
		_ = db.Exec(`DROP FUNCTION IF EXISTS bloqueia_trilha_teste()`).Error
	}()

	// A trilha é melhor-esforço: a transição tem que commitar mesmo assim.
	dono := Actor{ID: massoID, Role: auth.RoleMassoterapeuta}
	tr, err := s.Transition(ctx, res.Agendamento.ID, dono, StatusConfirmado, "")
	if err != nil {
		t.Fatalf("confirmar com trilha indisponível: %v", err)
	}
	if tr.Agendamento.Status != string(StatusConfirmado) {
		t.Errorf("status devolvido: got %s, want confirmado", tr.Agendamento.Status)
	}

	// O novo status de fato persistiu; não pode ter virado rollback.
	var persistido string
	if err := db.Raw(`SELECT status FROM agendamento WHERE id = ?`, res.Agendamento.ID).Scan(&persistido).Error; err != nil {
		t.Fatalf("ler status persistido: %v", err)
	}
	if persistido != string(StatusConfirmado) {
		t.Errorf("status persistido: got %s, want confirmado", persistido)
	}

	trilha, err := repo.HistoricoDoAgendamento(ctx, db, res.Agendamento.ID)
	if err != nil {
		t.Fatalf("HistoricoDoAgendamento: %v", err)
	}
	if len(trilha) != 0 {
		t.Errorf("trilha: got %d entradas, want 0", len(trilha))
	}
}

func TestIntegration_TrilhaDeHistorico(t *testing.T) {
	s, db := openSchedulerForTest(t)
	ctx := context.Background()
	clienteID, massoID := criarContas(t, db)

	res, err := s.Book(ctx, clienteID, massoID, "2026-02-12T15:00", nil)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	dono := Actor{ID: massoID, Role: auth.RoleMassoterapeuta}
	if _, err := s.Transition(ctx, res.Agendamento.ID, dono, StatusConfirmado, ""); err != nil {
		t.Fatalf("confirmar: %v", err)
	}
	if _, err := s.Transition(ctx, res.Agendamento.ID, dono, StatusCancelado, "profissional indisponível na data"); err != nil {
		t.Fatalf("cancelar: %v", err)
	}

	trilha, err := repo.HistoricoDoAgendamento(ctx, db, res.Agendamento.ID)
	if err != nil {
		t.Fatalf("HistoricoDoAgendamento: %v", err)
	}
	if len(trilha) != 2 {
		t.Fatalf("trilha: got %d entradas, want 2", len(trilha))
	}
	if trilha[0].StatusDe != "pendente" || trilha[0].StatusPara != "confirmado" {
		t.Errorf("primeira entrada: %s → %s", trilha[0].StatusDe, trilha[0].StatusPara)
	}
	if trilha[1].StatusPara != "cancelado" || trilha[1].Motivo == nil {
		t.Errorf("segunda entrada: %s → %s motivo=%v", trilha[1].StatusDe, trilha[1].StatusPara, trilha[1].Motivo)
	}
}
