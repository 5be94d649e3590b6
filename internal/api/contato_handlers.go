package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"
)

type ContatoRequest struct {
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Mensagem string `json:"mensagem"`
}

// Contato encaminha a mensagem do formulário público para a caixa da clínica.
// Endpoint aberto; a validação é o único freio contra lixo.
func (h *Handler) Contato(w http.ResponseWriter, r *http.Request) {
	var req ContatoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	req.Nome = strings.TrimSpace(req.Nome)
	req.Mensagem = strings.TrimSpace(req.Mensagem)
	if err := ValidateNome(req.Nome); err != nil {
		writeErro(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ValidateEmail(req.Email); err != nil {
		writeErro(w, http.StatusBadRequest, err.Error())
		return
	}
	if utf8.RuneCountInString(req.Mensagem) < 10 || utf8.RuneCountInString(req.Mensagem) > 5000 {
		writeErro(w, http.StatusBadRequest, "a mensagem deve ter entre 10 e 5000 caracteres")
		return
	}
	if h.sendContato == nil {
		writeErro(w, http.StatusServiceUnavailable, "envio de contato indisponível")
		return
	}
	if err := h.sendContato(h.Cfg.ClinicEmail, req.Nome, strings.TrimSpace(req.Email), req.Mensagem); err != nil {
		log.Printf("[api] contato de %s: %v", req.Email, err)
		writeErro(w, http.StatusInternalServerError, "não foi possível enviar sua mensagem, tente novamente")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensagem": "mensagem enviada, retornaremos em breve"})
}
