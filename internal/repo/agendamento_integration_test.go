//go:build integration

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/testutil"
)

var bloqueantes = []string{"pendente", "marcado", "confirmado"}

func openDBForTest(t *testing.T) *gorm.DB {
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
	return db
}

func contasParaTest(t *testing.T, db *gorm.DB) (*Cliente, *Massoterapeuta) {
	t.Helper()
	ctx := context.Background()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	c, err := CreateCliente(ctx, db, "Ana Repo", "+5511999990000", "F", nil, "ana"+suffix+"@teste.local", "hash")
	if err != nil {
		t.Fatalf("CreateCliente: %v", err)
	}
	m, err := CreateMassoterapeuta(ctx, db, "Rita Repo", "+5511888880000", "rita"+suffix+"@teste.local", "hash")
	if err != nil {
		t.Fatalf("CreateMassoterapeuta: %v", err)
	}
	return c, m
}

func TestIntegration_HorariosOcupados(t *testing.T) {
	db := openDBForTest(t)
	ctx := context.Background()
	c, m := contasParaTest(t, db)

	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	if _, err := CreateAgendamento(ctx, db, c.ID, m.ID, base, nil, "pendente"); err != nil {
		t.Fatalf("CreateAgendamento: %v", err)
	}
	a2, err := CreateAgendamento(ctx, db, c.ID, m.ID, base.Add(2*time.Hour), nil, "confirmado")
	if err != nil {
		t.Fatalf("CreateAgendamento: %v", err)
	}

	ocupados, err := HorariosOcupados(ctx, db, m.ID, bloqueantes)
	if err != nil {
		t.Fatalf("HorariosOcupados: %v", err)
	}
	if len(ocupados) != 2 {
		t.Fatalf("ocupados: got %d, want 2", len(ocupados))
	}
	if !ocupados[0].Before(ocupados[1]) {
		t.Error("ocupados deveriam vir em ordem crescente")
	}

	// Cancelado sai da lista.
	if err := UpdateStatusAgendamento(ctx, db, a2.ID, "cancelado"); err != nil {
		t.Fatalf("UpdateStatusAgendamento: %v", err)
	}
	ocupados, err = HorariosOcupados(ctx, db, m.ID, bloqueantes)
	if err != nil {
		t.Fatalf("HorariosOcupados: %v", err)
	}
	if len(ocupados) != 1 {
		t.Errorf("após cancelar: got %d, want 1", len(ocupados))
	}
}

func TestIntegration_HistoricoELimpeza(t *testing.T) {
	db := openDBForTest(t)
	ctx := context.Background()
	c, m := contasParaTest(t, db)

	base := time.Date(2026, 5, 5, 10, 0, 0, 0, time.UTC)
	for i, status := range []string{"concluido", "cancelado", "pendente"} {
		if _, err := CreateAgendamento(ctx, db, c.ID, m.ID, base.Add(time.Duration(i)*time.Hour), nil, status); err != nil {
			t.Fatalf("CreateAgendamento %s: %v", status, err)
		}
	}

	encerrados := []string{"cancelado", "concluido"}
	hist, err := HistoricoSessoesCliente(ctx, db, c.ID, false, encerrados)
	if err != nil {
		t.Fatalf("HistoricoSessoesCliente: %v", err)
	}
	if len(hist) != 2 {
		t.Errorf("sessões encerradas: got %d, want 2", len(hist))
	}
	for _, h := range hist {
		if h.MassoterapeutaNome == "" {
			t.Error("join com massoterapeuta deveria preencher o nome")
		}
	}

	todos, err := HistoricoSessoesCliente(ctx, db, c.ID, true, encerrados)
	if err != nil {
		t.Fatalf("HistoricoSessoesCliente todos: %v", err)
	}
	if len(todos) != 3 {
		t.Errorf("todas as sessões: got %d, want 3", len(todos))
	}

	n, err := DeleteAgendamentosDoCliente(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("DeleteAgendamentosDoCliente: %v", err)
	}
	if n != 3 {
		t.Errorf("removidos: got %d, want 3", n)
	}
}

func TestIntegration_BuscarPacientesComHistorico(t *testing.T) {
	db := openDBForTest(t)
	ctx := context.Background()
	c, m := contasParaTest(t, db)

	agora := time.Date(2026, 5, 6, 12, 0, 0, 0, time.UTC)
	if _, err := CreateAgendamento(ctx, db, c.ID, m.ID, agora.Add(-48*time.Hour), nil, "concluido"); err != nil {
		t.Fatalf("CreateAgendamento passado: %v", err)
	}
	if _, err := CreateAgendamento(ctx, db, c.ID, m.ID, agora.Add(48*time.Hour), nil, "confirmado"); err != nil {
		t.Fatalf("CreateAgendamento futuro: %v", err)
	}

	// Busca parcial, caixa ignorada.
	pacientes, err := BuscarPacientesComHistorico(ctx, db, m.ID, "ana r", agora)
	if err != nil {
		t.Fatalf("BuscarPacientesComHistorico: %v", err)
	}
	if len(pacientes) != 1 {
		t.Fatalf("pacientes: got %d, want 1", len(pacientes))
	}
	p := pacientes[0]
	if p.Cliente.ID != c.ID {
		t.Errorf("cliente: got %d, want %d", p.Cliente.ID, c.ID)
	}
	if len(p.Futuros) != 1 || len(p.Passados) != 1 {
		t.Errorf("divisão futuro/passado: got %d/%d, want 1/1", len(p.Futuros), len(p.Passados))
	}

	// Outro massoterapeuta não enxerga o paciente.
	_, outro := contasParaTest(t, db)
	vazio, err := BuscarPacientesComHistorico(ctx, db, outro.ID, "ana r", agora)
	if err != nil {
		t.Fatalf("BuscarPacientesComHistorico outro: %v", err)
	}
	if len(vazio) != 0 {
		t.Errorf("outro massoterapeuta: got %d pacientes, want 0", len(vazio))
	}
}
