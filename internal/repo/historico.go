package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// HistoricoRow é uma entrada da trilha de mudanças de status de um agendamento.
type HistoricoRow struct {
	ID            int64
	AgendamentoID int64
	StatusDe      string `gorm:"column:status_de"`
	StatusPara    string `gorm:"column:status_para"`
	AtorRole      string `gorm:"column:ator_role"`
	AtorID        int64  `gorm:"column:ator_id"`
	Motivo        *string
	CriadoEm      time.Time `gorm:"column:criado_em"`
}

// RegistrarHistorico grava uma mudança de status na trilha. Chamado dentro da
// mesma transação que muda o agendamento.
func RegistrarHistorico(ctx context.Context, tx *gorm.DB, agendamentoID int64, statusDe, statusPara, atorRole string, atorID int64, motivo *string) error {
	return tx.WithContext(ctx).Exec(`
		INSERT INTO agendamento_historico (agendamento_id, status_de, status_para, ator_role, ator_id, motivo)
		VALUES (?, ?, ?, ?, ?, ?)
	`, agendamentoID, statusDe, statusPara, atorRole, atorID, motivo).Error
}

// HistoricoDoAgendamento lista a trilha de um agendamento, mais antiga primeiro.
func HistoricoDoAgendamento(ctx context.Context, db *gorm.DB, agendamentoID int64) ([]HistoricoRow, error) {
	var list []HistoricoRow
	err := db.WithContext(ctx).Raw(`
		SELECT id, agendamento_id, status_de, status_para, ator_role, ator_id, motivo, criado_em
		FROM agendamento_historico
		WHERE agendamento_id = ?
		ORDER BY criado_em, id
	`, agendamentoID).Scan(&list).Error
	return list, err
}
