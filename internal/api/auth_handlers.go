package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/massoterapia/backend/internal/auth"
	"github.com/massoterapia/backend/internal/repo"
)

type RegistroClienteRequest struct {
	Nome           string  `json:"nome"`
	Telefone       string  `json:"telefone"`
	Sexo           string  `json:"sexo"`
	DataNascimento *string `json:"data_nascimento"` // "2006-01-02"
	Email          string  `json:"email"`
	Senha          string  `json:"senha"`
}

type LoginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

const jwtTTL = 24 * time.Hour

// RegistrarCliente cria a conta do cliente e dispara o e-mail de confirmação.
// O login fica bloqueado até o e-mail ser confirmado.
func (h *Handler) RegistrarCliente(w http.ResponseWriter, r *http.Request) {
	var req RegistroClienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Nome = strings.TrimSpace(req.Nome)
	if err := ValidateNome(req.Nome); err != nil {
		writeErro(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateEmail(req.Email); err != nil {
		writeErro(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateSenha(req.Senha); err != nil {
		writeErro(w, http.StatusBadRequest, err.Error())
		return
	}
	var dataNascimento *time.Time
	if req.DataNascimento != nil && strings.TrimSpace(*req.DataNascimento) != "" {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(*req.DataNascimento))
		if err != nil {
			writeErro(w, http.StatusBadRequest, "data_nascimento inválida (use AAAA-MM-DD)")
			return
		}
		dataNascimento = &d
	}
	hash, err := auth.HashPassword(req.Senha)
	if err != nil {
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	c, err := repo.CreateCliente(r.Context(), h.DB, req.Nome, NormalizeTelefone(req.Telefone), strings.TrimSpace(req.Sexo), dataNascimento, req.Email, hash)
	if err != nil {
		if isUniqueViolation(err) {
			writeErro(w, http.StatusConflict, "e-mail já cadastrado")
			return
		}
		log.Printf("[api] registrar cliente: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}

	aviso := ""
	if h.sendEmailConfirmation != nil {
		tok, err := auth.BuildEmailToken(h.Cfg.JWTSecret, c.Email, auth.PurposeConfirmEmail, 24*time.Hour)
		if err == nil {
			confirmURL := h.Cfg.AppPublicURL + "/confirmar-email?token=" + url.QueryEscape(tok)
			err = h.sendEmailConfirmation(c.Email, c.Nome, confirmURL)
		}
		if err != nil {
			log.Printf("[api] e-mail de confirmação para %s: %v", c.Email, err)
			aviso = "conta criada, mas o e-mail de confirmação não pôde ser enviado"
		}
	}

	resp := map[string]interface{}{
		"id":       c.ID,
		"nome":     c.Nome,
		"email":    c.Email,
		"mensagem": "cadastro realizado; confirme seu e-mail para entrar",
	}
	if aviso != "" {
		resp["aviso"] = aviso
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ConfirmarEmail ativa a conta do cliente a partir do token enviado por e-mail.
// Reconfirmar é inofensivo.
func (h *Handler) ConfirmarEmail(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		writeErro(w, http.StatusBadRequest, "token ausente")
		return
	}
	email, err := auth.ParseEmailToken(h.Cfg.JWTSecret, tok, auth.PurposeConfirmEmail)
	if err != nil {
		writeErro(w, http.StatusBadRequest, "token inválido ou expirado")
		return
	}
	ok, err := repo.ConfirmarEmailCliente(r.Context(), h.DB, email)
	if err != nil {
		log.Printf("[api] confirmar e-mail %s: %v", email, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	if !ok {
		writeErro(w, http.StatusNotFound, "conta não encontrada")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensagem": "e-mail confirmado, você já pode entrar"})
}

// LoginCliente autentica o cliente. Conta sem e-mail confirmado não entra,
// com mensagem própria para o frontend oferecer o reenvio.
func (h *Handler) LoginCliente(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Senha == "" {
		writeErro(w, http.StatusBadRequest, "e-mail e senha são obrigatórios")
		return
	}
	c, err := repo.ClientePorEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		log.Printf("[api] login cliente: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	if c == nil || !auth.CheckPassword(c.SenhaHash, req.Senha) {
		// Resposta genérica: não revela se o e-mail existe.
		writeErro(w, http.StatusUnauthorized, "credenciais inválidas")
		return
	}
	if !c.EmailConfirmado {
		writeErro(w, http.StatusForbidden, "confirme seu e-mail antes de entrar")
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, c.ID, auth.RoleCliente, jwtTTL)
	if err != nil {
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(jwtTTL),
		User:      UserInfo{ID: c.ID, Nome: c.Nome, Email: c.Email, Role: auth.RoleCliente},
	})
}

// ReenviarConfirmacao reenvia o link de confirmação. Resposta sempre 200 para
// não revelar contas existentes.
func (h *Handler) ReenviarConfirmacao(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	c, err := repo.ClientePorEmail(r.Context(), h.DB, req.Email)
	if err == nil && c != nil && !c.EmailConfirmado && h.sendEmailConfirmation != nil {
		if tok, err := auth.BuildEmailToken(h.Cfg.JWTSecret, c.Email, auth.PurposeConfirmEmail, 24*time.Hour); err == nil {
			confirmURL := h.Cfg.AppPublicURL + "/confirmar-email?token=" + url.QueryEscape(tok)
			if err := h.sendEmailConfirmation(c.Email, c.Nome, confirmURL); err != nil {
				log.Printf("[api] reenviar confirmação para %s: %v", c.Email, err)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensagem": "se a conta existir, o e-mail foi reenviado"})
}

// LoginMassoterapeuta autentica o profissional. Não há gate de confirmação de
// e-mail: contas são criadas por seed.
func (h *Handler) LoginMassoterapeuta(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Senha == "" {
		writeErro(w, http.StatusBadRequest, "e-mail e senha são obrigatórios")
		return
	}
	m, err := repo.MassoterapeutaPorEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		log.Printf("[api] login massoterapeuta: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	if m == nil || !auth.CheckPassword(m.SenhaHash, req.Senha) {
		writeErro(w, http.StatusUnauthorized, "credenciais inválidas")
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, m.ID, auth.RoleMassoterapeuta, jwtTTL)
	if err != nil {
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(jwtTTL),
		User:      UserInfo{ID: m.ID, Nome: m.Nome, Email: m.Email, Role: auth.RoleMassoterapeuta},
	})
}

// EsqueciSenha envia o link de redefinição para cliente ou massoterapeuta.
// Resposta sempre 200.
func (h *Handler) EsqueciSenha(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	existe := false
	if c, err := repo.ClientePorEmail(r.Context(), h.DB, req.Email); err == nil && c != nil {
		existe = true
	} else if m, err := repo.MassoterapeutaPorEmail(r.Context(), h.DB, req.Email); err == nil && m != nil {
		existe = true
	}
	if existe && h.sendPasswordReset != nil {
		if tok, err := auth.BuildEmailToken(h.Cfg.JWTSecret, req.Email, auth.PurposeResetPassword, time.Hour); err == nil {
			resetURL := h.Cfg.AppPublicURL + "/redefinir-senha?token=" + url.QueryEscape(tok)
			if err := h.sendPasswordReset(req.Email, resetURL); err != nil {
				log.Printf("[api] e-mail de redefinição para %s: %v", req.Email, err)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensagem": "se a conta existir, enviamos o link de redefinição"})
}

// RedefinirSenha troca a senha a partir do token de redefinição. Tenta as duas
// tabelas: o token carrega só o e-mail.
func (h *Handler) RedefinirSenha(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	email, err := auth.ParseEmailToken(h.Cfg.JWTSecret, req.Token, auth.PurposeResetPassword)
	if err != nil {
		writeErro(w, http.StatusBadRequest, "token inválido ou expirado")
		return
	}
	if err := ValidateSenha(req.Senha); err != nil {
		writeErro(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Senha)
	if err != nil {
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	ok, err := repo.UpdateSenhaClientePorEmail(r.Context(), h.DB, email, hash)
	if err == nil && !ok {
		ok, err = repo.UpdateSenhaMassoterapeutaPorEmail(r.Context(), h.DB, email, hash)
	}
	if err != nil {
		log.Printf("[api] redefinir senha %s: %v", email, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	if !ok {
		writeErro(w, http.StatusNotFound, "conta não encontrada")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensagem": "senha redefinida"})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
