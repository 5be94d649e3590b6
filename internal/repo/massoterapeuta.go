package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Massoterapeuta é a conta profissional. Contas são criadas por seed, não há
// cadastro aberto.
type Massoterapeuta struct {
	ID        int64
	Nome      string
	Telefone  string
	Email     string
	SenhaHash string    `gorm:"column:senha_hash"`
	CriadoEm  time.Time `gorm:"column:criado_em"`
}

const colsMassoterapeuta = "id, nome, telefone, email, senha_hash, criado_em"

// CreateMassoterapeuta insere a conta profissional (usado pelo seed).
func CreateMassoterapeuta(ctx context.Context, db *gorm.DB, nome, telefone, email, senhaHash string) (*Massoterapeuta, error) {
	var m Massoterapeuta
	err := db.WithContext(ctx).Raw(`
		INSERT INTO massoterapeuta (nome, telefone, email, senha_hash)
		VALUES (?, ?, LOWER(?), ?)
		RETURNING `+colsMassoterapeuta, nome, telefone, email, senhaHash).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MassoterapeutaPorEmail busca por email (caixa ignorada). Retorna nil quando não existe.
func MassoterapeutaPorEmail(ctx context.Context, db *gorm.DB, email string) (*Massoterapeuta, error) {
	var m Massoterapeuta
	err := db.WithContext(ctx).Raw(`
		SELECT `+colsMassoterapeuta+` FROM massoterapeuta WHERE email = LOWER(?)
	`, email).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

// MassoterapeutaPorID busca por id. Retorna nil quando não existe.
func MassoterapeutaPorID(ctx context.Context, db *gorm.DB, id int64) (*Massoterapeuta, error) {
	var m Massoterapeuta
	err := db.WithContext(ctx).Raw(`
		SELECT `+colsMassoterapeuta+` FROM massoterapeuta WHERE id = ?
	`, id).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

// ListMassoterapeutas lista os profissionais para o seletor de agendamento do
// cliente. Sem dados sensíveis.
func ListMassoterapeutas(ctx context.Context, db *gorm.DB) ([]Massoterapeuta, error) {
	var list []Massoterapeuta
	err := db.WithContext(ctx).Raw(`
		SELECT id, nome, telefone, email, '' AS senha_hash, criado_em
		FROM massoterapeuta ORDER BY nome
	`).Scan(&list).Error
	return list, err
}

// UpdatePerfilMassoterapeuta atualiza nome e telefone do próprio profissional.
func UpdatePerfilMassoterapeuta(ctx context.Context, db *gorm.DB, id int64, nome, telefone string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE massoterapeuta SET nome = ?, telefone = ? WHERE id = ?
	`, nome, telefone, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSenhaMassoterapeutaPorEmail troca a senha (fluxo de redefinição).
func UpdateSenhaMassoterapeutaPorEmail(ctx context.Context, db *gorm.DB, email, senhaHash string) (bool, error) {
	result := db.WithContext(ctx).Exec(`
		UPDATE massoterapeuta SET senha_hash = ? WHERE email = LOWER(?)
	`, senhaHash, email)
	return result.RowsAffected > 0, result.Error
}
