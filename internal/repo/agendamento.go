package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Agendamento é o registro tipado construído na fronteira do repositório;
// nada acima desta camada vê linhas cruas do banco.
type Agendamento struct {
	ID               int64
	ClienteID        int64
	MassoterapeutaID int64
	DataHora         time.Time
	Sintomas         *string
	Status           string
	CriadoEm         time.Time `gorm:"column:criado_em"`
}

// AgendamentoCliente é um agendamento com os dados do massoterapeuta (histórico do cliente).
type AgendamentoCliente struct {
	Agendamento
	MassoterapeutaNome string
}

// AgendamentoMasso é um agendamento com os dados do cliente (agenda do massoterapeuta).
type AgendamentoMasso struct {
	Agendamento
	ClienteNome     string
	ClienteTelefone string
	ClienteEmail    string
	ClienteSexo     string
}

// AgendamentoDetalhe carrega contatos dos dois lados, para notificações.
type AgendamentoDetalhe struct {
	Agendamento
	ClienteNome            string
	ClienteEmail           string
	ClienteTelefone        string
	MassoterapeutaNome     string
	MassoterapeutaTelefone string
	MassoterapeutaEmail    string
}

const colsAgendamento = "id, cliente_id, massoterapeuta_id, data_hora, sintomas, status, criado_em"

// CreateAgendamento insere e devolve o registro criado. A exclusividade do
// slot é garantida pelos índices únicos parciais (status bloqueante) da
// migração; inserções concorrentes no mesmo slot viram violação 23505.
func CreateAgendamento(ctx context.Context, db *gorm.DB, clienteID, massoterapeutaID int64, dataHora time.Time, sintomas *string, status string) (*Agendamento, error) {
	var a Agendamento
	err := db.WithContext(ctx).Raw(`
		INSERT INTO agendamento (cliente_id, massoterapeuta_id, data_hora, sintomas, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+colsAgendamento, clienteID, massoterapeutaID, dataHora, sintomas, status).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ConflitoMassoterapeuta devolve o agendamento bloqueante do massoterapeuta no
// instante dado, ou nil quando o slot está livre.
func ConflitoMassoterapeuta(ctx context.Context, db *gorm.DB, massoterapeutaID int64, dataHora time.Time, bloqueantes []string) (*Agendamento, error) {
	return conflitoPorColuna(ctx, db, "massoterapeuta_id", massoterapeutaID, dataHora, bloqueantes)
}

// ConflitoCliente devolve o agendamento bloqueante do cliente no instante dado, ou nil.
func ConflitoCliente(ctx context.Context, db *gorm.DB, clienteID int64, dataHora time.Time, bloqueantes []string) (*Agendamento, error) {
	return conflitoPorColuna(ctx, db, "cliente_id", clienteID, dataHora, bloqueantes)
}

func conflitoPorColuna(ctx context.Context, db *gorm.DB, coluna string, id int64, dataHora time.Time, bloqueantes []string) (*Agendamento, error) {
	var a Agendamento
	err := db.WithContext(ctx).Raw(`
		SELECT `+colsAgendamento+` FROM agendamento
		WHERE `+coluna+` = ? AND data_hora = ? AND status IN ?
		LIMIT 1
	`, id, dataHora, bloqueantes).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

// AgendamentoDoAtorForUpdate carrega o agendamento com lock de linha, escopado
// pelo dono (cliente_id ou massoterapeuta_id). "Não existe" e "não é seu"
// retornam ambos gorm.ErrRecordNotFound, de propósito.
func AgendamentoDoAtorForUpdate(ctx context.Context, tx *gorm.DB, id int64, coluna string, atorID int64) (*Agendamento, error) {
	if coluna != "cliente_id" && coluna != "massoterapeuta_id" {
		return nil, errors.New("coluna de dono inválida")
	}
	var a Agendamento
	err := tx.WithContext(ctx).Raw(`
		SELECT `+colsAgendamento+` FROM agendamento
		WHERE id = ? AND `+coluna+` = ?
		FOR UPDATE
	`, id, atorID).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

// UpdateStatusAgendamento grava o novo status. A legalidade da transição é
// decidida fora, no pacote schedule.
func UpdateStatusAgendamento(ctx context.Context, tx *gorm.DB, id int64, status string) error {
	result := tx.WithContext(ctx).Exec(`UPDATE agendamento SET status = ? WHERE id = ?`, status, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HistoricoSessoesCliente lista o histórico do cliente, mais recente primeiro.
// incluirFuturos=false restringe a sessões encerradas (concluido/cancelado).
func HistoricoSessoesCliente(ctx context.Context, db *gorm.DB, clienteID int64, incluirFuturos bool, encerrados []string) ([]AgendamentoCliente, error) {
	q := `
		SELECT a.id, a.cliente_id, a.massoterapeuta_id, a.data_hora, a.sintomas, a.status, a.criado_em,
		       m.nome AS massoterapeuta_nome
		FROM agendamento a
		JOIN massoterapeuta m ON a.massoterapeuta_id = m.id
		WHERE a.cliente_id = ?
	`
	args := []interface{}{clienteID}
	if !incluirFuturos {
		q += ` AND a.status IN ?`
		args = append(args, encerrados)
	}
	q += ` ORDER BY a.data_hora DESC`
	var list []AgendamentoCliente
	err := db.WithContext(ctx).Raw(q, args...).Scan(&list).Error
	return list, err
}

// AgendamentosDoMassoterapeuta lista a agenda do massoterapeuta, mais recente
// primeiro. statusFiltro vazio lista todos.
func AgendamentosDoMassoterapeuta(ctx context.Context, db *gorm.DB, massoterapeutaID int64, statusFiltro []string) ([]AgendamentoMasso, error) {
	q := `
		SELECT a.id, a.cliente_id, a.massoterapeuta_id, a.data_hora, a.sintomas, a.status, a.criado_em,
		       c.nome AS cliente_nome, c.telefone AS cliente_telefone, c.email AS cliente_email, c.sexo AS cliente_sexo
		FROM agendamento a
		JOIN cliente c ON a.cliente_id = c.id
		WHERE a.massoterapeuta_id = ?
	`
	args := []interface{}{massoterapeutaID}
	if len(statusFiltro) > 0 {
		q += ` AND a.status IN ?`
		args = append(args, statusFiltro)
	}
	q += ` ORDER BY a.data_hora DESC`
	var list []AgendamentoMasso
	err := db.WithContext(ctx).Raw(q, args...).Scan(&list).Error
	return list, err
}

// HorariosOcupados lista os instantes bloqueados do massoterapeuta,
// independentemente do cliente, para o seletor de horários do frontend.
func HorariosOcupados(ctx context.Context, db *gorm.DB, massoterapeutaID int64, bloqueantes []string) ([]time.Time, error) {
	var rows []struct{ DataHora time.Time }
	err := db.WithContext(ctx).Raw(`
		SELECT data_hora FROM agendamento
		WHERE massoterapeuta_id = ? AND status IN ?
		ORDER BY data_hora
	`, massoterapeutaID, bloqueantes).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.DataHora
	}
	return out, nil
}

// BuscaDetalheAgendamento carrega o agendamento com contatos de cliente e
// massoterapeuta, para compor notificações.
func BuscaDetalheAgendamento(ctx context.Context, db *gorm.DB, id int64) (*AgendamentoDetalhe, error) {
	var d AgendamentoDetalhe
	err := db.WithContext(ctx).Raw(`
		SELECT a.id, a.cliente_id, a.massoterapeuta_id, a.data_hora, a.sintomas, a.status, a.criado_em,
		       c.nome AS cliente_nome, c.email AS cliente_email, c.telefone AS cliente_telefone,
		       m.nome AS massoterapeuta_nome, m.telefone AS massoterapeuta_telefone, m.email AS massoterapeuta_email
		FROM agendamento a
		JOIN cliente c ON a.cliente_id = c.id
		JOIN massoterapeuta m ON a.massoterapeuta_id = m.id
		WHERE a.id = ?
	`, id).Scan(&d).Error
	if err != nil {
		return nil, err
	}
	if d.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

// DeleteAgendamentosDoCliente apaga o histórico do próprio cliente ("limpar
// histórico"). Irreversível; nunca toca registros de outros clientes.
func DeleteAgendamentosDoCliente(ctx context.Context, db *gorm.DB, clienteID int64) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM agendamento WHERE cliente_id = ?`, clienteID)
	return result.RowsAffected, result.Error
}

// ClienteResumo é a linha da listagem de pacientes do massoterapeuta.
type ClienteResumo struct {
	ID           int64
	Nome         string
	Telefone     string
	Email        string
	TotalSessoes int64     `gorm:"column:total_sessoes"`
	UltimaSessao time.Time `gorm:"column:ultima_sessao"`
}

// ClientesDoMassoterapeuta lista os clientes que já agendaram com o
// profissional, com contagem de sessões e data da última.
func ClientesDoMassoterapeuta(ctx context.Context, db *gorm.DB, massoterapeutaID int64) ([]ClienteResumo, error) {
	var list []ClienteResumo
	err := db.WithContext(ctx).Raw(`
		SELECT c.id, c.nome, c.telefone, c.email,
		       COUNT(a.id) AS total_sessoes, MAX(a.data_hora) AS ultima_sessao
		FROM cliente c
		JOIN agendamento a ON c.id = a.cliente_id
		WHERE a.massoterapeuta_id = ?
		GROUP BY c.id, c.nome, c.telefone, c.email
		ORDER BY c.nome
	`, massoterapeutaID).Scan(&list).Error
	return list, err
}

// PacienteComHistorico agrupa um cliente e suas sessões com o massoterapeuta.
type PacienteComHistorico struct {
	Cliente  Cliente
	Futuros  []Agendamento
	Passados []Agendamento
}

// BuscarPacientesComHistorico procura clientes por nome (parcial, sem caixa)
// entre os que já agendaram com o massoterapeuta, com sessões divididas em
// futuras e passadas em relação a "agora".
func BuscarPacientesComHistorico(ctx context.Context, db *gorm.DB, massoterapeutaID int64, nome string, agora time.Time) ([]PacienteComHistorico, error) {
	var clientes []Cliente
	err := db.WithContext(ctx).Raw(`
		SELECT DISTINCT c.id, c.nome, c.telefone, c.sexo, c.data_nascimento, c.email, c.email_confirmado, c.criado_em
		FROM cliente c
		JOIN agendamento a ON c.id = a.cliente_id
		WHERE a.massoterapeuta_id = ? AND LOWER(c.nome) LIKE LOWER(?)
		ORDER BY c.nome
	`, massoterapeutaID, "%"+strings.TrimSpace(nome)+"%").Scan(&clientes).Error
	if err != nil {
		return nil, err
	}
	out := make([]PacienteComHistorico, 0, len(clientes))
	for _, c := range clientes {
		var sessoes []Agendamento
		err := db.WithContext(ctx).Raw(`
			SELECT `+colsAgendamento+` FROM agendamento
			WHERE cliente_id = ? AND massoterapeuta_id = ?
			ORDER BY data_hora DESC
		`, c.ID, massoterapeutaID).Scan(&sessoes).Error
		if err != nil {
			return nil, err
		}
		p := PacienteComHistorico{Cliente: c}
		for _, s := range sessoes {
			if s.DataHora.After(agora) {
				p.Futuros = append(p.Futuros, s)
			} else {
				p.Passados = append(p.Passados, s)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// LembreteRow tem os dados para enviar um lembrete WhatsApp de uma consulta.
type LembreteRow struct {
	AgendamentoID   int64
	ClienteID       int64
	ClienteNome     string
	ClienteTelefone string
	DataHora        time.Time
}

// AgendamentosParaLembrete lista as consultas do dia informado com telefone de
// cliente preenchido, para o job de lembretes.
func AgendamentosParaLembrete(ctx context.Context, db *gorm.DB, dia time.Time, statusLembrete []string) ([]LembreteRow, error) {
	inicio := time.Date(dia.Year(), dia.Month(), dia.Day(), 0, 0, 0, 0, dia.Location())
	fim := inicio.AddDate(0, 0, 1)
	var list []LembreteRow
	err := db.WithContext(ctx).Raw(`
		SELECT a.id AS agendamento_id, c.id AS cliente_id, c.nome AS cliente_nome,
		       TRIM(c.telefone) AS cliente_telefone, a.data_hora
		FROM agendamento a
		JOIN cliente c ON c.id = a.cliente_id
		WHERE a.data_hora >= ? AND a.data_hora < ?
		  AND a.status IN ?
		  AND c.telefone IS NOT NULL AND TRIM(c.telefone) != ''
		ORDER BY a.data_hora
	`, inicio, fim, statusLembrete).Scan(&list).Error
	return list, err
}
