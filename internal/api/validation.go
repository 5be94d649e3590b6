package api

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmailInvalido = errors.New("e-mail inválido")
	ErrSenhaFraca    = errors.New("a senha deve ter pelo menos 8 caracteres, com letras e números")
	ErrNomeVazio     = errors.New("nome é obrigatório")
)

var reEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail valida formato de e-mail.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 254 || !reEmail.MatchString(email) {
		return ErrEmailInvalido
	}
	return nil
}

// ValidateSenha exige mínimo de 8 caracteres com pelo menos uma letra e um dígito.
func ValidateSenha(senha string) error {
	if utf8.RuneCountInString(senha) < 8 {
		return ErrSenhaFraca
	}
	var temLetra, temDigito bool
	for _, r := range senha {
		switch {
		case r >= '0' && r <= '9':
			temDigito = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			temLetra = true
		}
	}
	if !temLetra || !temDigito {
		return ErrSenhaFraca
	}
	return nil
}

// ValidateNome exige nome não vazio com pelo menos 2 caracteres.
func ValidateNome(nome string) error {
	if utf8.RuneCountInString(strings.TrimSpace(nome)) < 2 {
		return ErrNomeVazio
	}
	return nil
}

// NormalizeTelefone tira espaços, parênteses e hífens; mantém dígitos e o +.
func NormalizeTelefone(tel string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(tel) {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
