package seed

import (
	"context"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/auth"
	"github.com/massoterapia/backend/internal/repo"
)

// Run garante que exista pelo menos um massoterapeuta. Não há cadastro aberto
// de profissionais; a conta inicial vem das variáveis SEED_MASSO_* (ou de um
// default de desenvolvimento quando elas não estão definidas).
func Run(ctx context.Context, db *gorm.DB) error {
	var n int
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM massoterapeuta").Scan(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		log.Printf("seed: %d massoterapeuta(s) já cadastrados, nada a fazer", n)
		return nil
	}

	nome := envOr("SEED_MASSO_NOME", "Massoterapeuta Demo")
	email := envOr("SEED_MASSO_EMAIL", "masso@massoterapia.local")
	telefone := envOr("SEED_MASSO_TELEFONE", "+5511999990000")
	senha := envOr("SEED_MASSO_SENHA", "ChangeMe123!")

	hash, err := auth.HashPassword(senha)
	if err != nil {
		return err
	}
	m, err := repo.CreateMassoterapeuta(ctx, db, nome, telefone, email, hash)
	if err != nil {
		return err
	}
	log.Printf("seed: massoterapeuta %q criado (id=%d email=%s)", m.Nome, m.ID, m.Email)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
