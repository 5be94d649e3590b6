package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Cliente é a conta de paciente. SenhaHash nunca sai da camada de API.
type Cliente struct {
	ID              int64
	Nome            string
	Telefone        string
	Sexo            string
	DataNascimento  *time.Time `gorm:"column:data_nascimento"`
	Email           string
	SenhaHash       string `gorm:"column:senha_hash"`
	EmailConfirmado bool   `gorm:"column:email_confirmado"`
	CriadoEm        time.Time `gorm:"column:criado_em"`
}

const colsCliente = "id, nome, telefone, sexo, data_nascimento, email, senha_hash, email_confirmado, criado_em"

// CreateCliente insere a conta e devolve o registro criado. Email duplicado
// estoura a unique da migração (23505).
func CreateCliente(ctx context.Context, db *gorm.DB, nome, telefone, sexo string, dataNascimento *time.Time, email, senhaHash string) (*Cliente, error) {
	var c Cliente
	err := db.WithContext(ctx).Raw(`
		INSERT INTO cliente (nome, telefone, sexo, data_nascimento, email, senha_hash)
		VALUES (?, ?, ?, ?, LOWER(?), ?)
		RETURNING `+colsCliente, nome, telefone, sexo, dataNascimento, email, senhaHash).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ClientePorEmail busca por email (caixa ignorada). Retorna nil quando não existe.
func ClientePorEmail(ctx context.Context, db *gorm.DB, email string) (*Cliente, error) {
	var c Cliente
	err := db.WithContext(ctx).Raw(`
		SELECT `+colsCliente+` FROM cliente WHERE email = LOWER(?)
	`, email).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

// ClientePorID busca por id. Retorna nil quando não existe.
func ClientePorID(ctx context.Context, db *gorm.DB, id int64) (*Cliente, error) {
	var c Cliente
	err := db.WithContext(ctx).Raw(`
		SELECT `+colsCliente+` FROM cliente WHERE id = ?
	`, id).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

// ConfirmarEmailCliente marca a conta como confirmada. É idempotente.
func ConfirmarEmailCliente(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	result := db.WithContext(ctx).Exec(`
		UPDATE cliente SET email_confirmado = TRUE WHERE email = LOWER(?)
	`, email)
	return result.RowsAffected > 0, result.Error
}

// UpdateSenhaClientePorEmail troca a senha (fluxo de redefinição).
func UpdateSenhaClientePorEmail(ctx context.Context, db *gorm.DB, email, senhaHash string) (bool, error) {
	result := db.WithContext(ctx).Exec(`
		UPDATE cliente SET senha_hash = ? WHERE email = LOWER(?)
	`, senhaHash, email)
	return result.RowsAffected > 0, result.Error
}

// DeleteCliente remove a conta. Agendamentos e trilha caem junto pelo
// ON DELETE CASCADE da migração.
func DeleteCliente(ctx context.Context, db *gorm.DB, id int64) error {
	result := db.WithContext(ctx).Exec(`
		DELETE FROM cliente WHERE id = ?
	`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePerfilCliente atualiza nome e telefone do próprio cliente.
func UpdatePerfilCliente(ctx context.Context, db *gorm.DB, id int64, nome, telefone string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE cliente SET nome = ?, telefone = ? WHERE id = ?
	`, nome, telefone, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
