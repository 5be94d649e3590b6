package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/auth"
	"github.com/massoterapia/backend/internal/repo"
	"github.com/massoterapia/backend/internal/schedule"
)

type AgendarRequest struct {
	MassoterapeutaID int64   `json:"massoterapeuta_id"`
	DataHora         string  `json:"data_hora"`
	Sintomas         *string `json:"sintomas"`
}

type AgendamentoResponse struct {
	ID               int64   `json:"id"`
	ClienteID        int64   `json:"cliente_id"`
	MassoterapeutaID int64   `json:"massoterapeuta_id"`
	DataHora         string  `json:"data_hora"`
	Sintomas         *string `json:"sintomas,omitempty"`
	Status           string  `json:"status"`
	Aviso            string  `json:"aviso,omitempty"`
}

func (h *Handler) agendamentoResponse(a *repo.Agendamento, aviso string) AgendamentoResponse {
	return AgendamentoResponse{
		ID:               a.ID,
		ClienteID:        a.ClienteID,
		MassoterapeutaID: a.MassoterapeutaID,
		DataHora:         a.DataHora.In(h.Scheduler.Rules.Zone).Format("2006-01-02T15:04:05"),
		Sintomas:         a.Sintomas,
		Status:           a.Status,
		Aviso:            aviso,
	}
}

// Agendar cria um agendamento do cliente autenticado.
func (h *Handler) Agendar(w http.ResponseWriter, r *http.Request) {
	clienteID := auth.UserIDFrom(r.Context())
	var req AgendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	if req.MassoterapeutaID == 0 {
		writeErro(w, http.StatusBadRequest, "massoterapeuta_id é obrigatório")
		return
	}
	m, err := repo.MassoterapeutaPorID(r.Context(), h.DB, req.MassoterapeutaID)
	if err != nil {
		log.Printf("[api] agendar: buscar massoterapeuta: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	if m == nil {
		writeErro(w, http.StatusNotFound, "massoterapeuta não encontrado")
		return
	}
	var sintomas *string
	if req.Sintomas != nil {
		if s := strings.TrimSpace(*req.Sintomas); s != "" {
			sintomas = &s
		}
	}
	res, err := h.Scheduler.Book(r.Context(), clienteID, req.MassoterapeutaID, req.DataHora, sintomas)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	h.invalidateOcupados(req.MassoterapeutaID)
	writeJSON(w, http.StatusCreated, h.agendamentoResponse(res.Agendamento, res.Aviso))
}

// MeusAgendamentos lista o histórico do cliente. ?todos=1 inclui futuros e
// pendentes; o padrão devolve só sessões encerradas.
func (h *Handler) MeusAgendamentos(w http.ResponseWriter, r *http.Request) {
	clienteID := auth.UserIDFrom(r.Context())
	todos := r.URL.Query().Get("todos") == "1"
	encerrados := []string{string(schedule.StatusCancelado), string(schedule.StatusConcluido)}
	list, err := repo.HistoricoSessoesCliente(r.Context(), h.DB, clienteID, todos, encerrados)
	if err != nil {
		log.Printf("[api] meus agendamentos: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	type item struct {
		AgendamentoResponse
		Massoterapeuta string `json:"massoterapeuta"`
	}
	out := make([]item, 0, len(list))
	for i := range list {
		out = append(out, item{
			AgendamentoResponse: h.agendamentoResponse(&list[i].Agendamento, ""),
			Massoterapeuta:      list[i].MassoterapeutaNome,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// CancelarAgendamentoCliente cancela um agendamento do próprio cliente.
// Só pendente e marcado podem ser cancelados por aqui; confirmado exige
// contato com a clínica.
func (h *Handler) CancelarAgendamentoCliente(w http.ResponseWriter, r *http.Request) {
	clienteID := auth.UserIDFrom(r.Context())
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErro(w, http.StatusBadRequest, "id inválido")
		return
	}
	actor := schedule.Actor{ID: clienteID, Role: auth.RoleCliente}
	res, err := h.Scheduler.Transition(r.Context(), id, actor, schedule.StatusCancelado, "")
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	h.invalidateOcupados(res.Agendamento.MassoterapeutaID)
	writeJSON(w, http.StatusOK, h.agendamentoResponse(res.Agendamento, res.Aviso))
}

// LimparHistorico apaga todos os agendamentos do cliente autenticado.
// Irreversível.
func (h *Handler) LimparHistorico(w http.ResponseWriter, r *http.Request) {
	clienteID := auth.UserIDFrom(r.Context())
	n, err := repo.DeleteAgendamentosDoCliente(r.Context(), h.DB, clienteID)
	if err != nil {
		log.Printf("[api] limpar histórico do cliente %d: %v", clienteID, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	h.Cache.DeletePrefix("ocupados:")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mensagem":  "histórico apagado",
		"removidos": n,
	})
}

// ExcluirConta remove a conta do cliente autenticado e, em cascata, seus
// agendamentos e trilha de status. Irreversível.
func (h *Handler) ExcluirConta(w http.ResponseWriter, r *http.Request) {
	clienteID := auth.UserIDFrom(r.Context())
	if err := repo.DeleteCliente(r.Context(), h.DB, clienteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeErro(w, http.StatusNotFound, "conta não encontrada")
			return
		}
		log.Printf("[api] excluir conta do cliente %d: %v", clienteID, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	h.Cache.DeletePrefix("ocupados:")
	writeJSON(w, http.StatusOK, map[string]string{"mensagem": "conta excluída"})
}

// MeuPerfil devolve os dados do cliente autenticado.
func (h *Handler) MeuPerfil(w http.ResponseWriter, r *http.Request) {
	c, err := repo.ClientePorID(r.Context(), h.DB, auth.UserIDFrom(r.Context()))
	if err != nil {
		log.Printf("[api] meu perfil: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	if c == nil {
		writeErro(w, http.StatusNotFound, "conta não encontrada")
		return
	}
	resp := map[string]interface{}{
		"id":       c.ID,
		"nome":     c.Nome,
		"telefone": c.Telefone,
		"sexo":     c.Sexo,
		"email":    c.Email,
	}
	if c.DataNascimento != nil {
		resp["data_nascimento"] = c.DataNascimento.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, resp)
}

// AtualizarPerfil atualiza nome e telefone do cliente autenticado.
func (h *Handler) AtualizarPerfil(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nome     string `json:"nome"`
		Telefone string `json:"telefone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	req.Nome = strings.TrimSpace(req.Nome)
	if err := ValidateNome(req.Nome); err != nil {
		writeErro(w, http.StatusBadRequest, err.Error())
		return
	}
	err := repo.UpdatePerfilCliente(r.Context(), h.DB, auth.UserIDFrom(r.Context()), req.Nome, NormalizeTelefone(req.Telefone))
	if err != nil {
		log.Printf("[api] atualizar perfil: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensagem": "perfil atualizado"})
}

// ListarMassoterapeutas lista os profissionais disponíveis para agendamento.
func (h *Handler) ListarMassoterapeutas(w http.ResponseWriter, r *http.Request) {
	list, err := repo.ListMassoterapeutas(r.Context(), h.DB)
	if err != nil {
		log.Printf("[api] listar massoterapeutas: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	type item struct {
		ID   int64  `json:"id"`
		Nome string `json:"nome"`
	}
	out := make([]item, 0, len(list))
	for _, m := range list {
		out = append(out, item{ID: m.ID, Nome: m.Nome})
	}
	writeJSON(w, http.StatusOK, out)
}

// HorariosOcupados lista os horários bloqueados do massoterapeuta para o
// seletor do frontend. Resposta cacheada por pouco tempo; toda mudança de
// agenda invalida.
func (h *Handler) HorariosOcupados(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErro(w, http.StatusBadRequest, "id inválido")
		return
	}
	key := ocupadosCacheKey(id)
	if data := h.Cache.Get(key); data != nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
		return
	}
	horarios, err := repo.HorariosOcupados(r.Context(), h.DB, id, schedule.BlockingStrings())
	if err != nil {
		log.Printf("[api] horários ocupados do massoterapeuta %d: %v", id, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	out := make([]string, len(horarios))
	for i, t := range horarios {
		out[i] = t.In(h.Scheduler.Rules.Zone).Format("2006-01-02T15:04:05")
	}
	data, err := json.Marshal(map[string]interface{}{"ocupados": out})
	if err != nil {
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	h.Cache.Set(key, data)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func ocupadosCacheKey(massoterapeutaID int64) string {
	return fmt.Sprintf("ocupados:%d", massoterapeutaID)
}

func (h *Handler) invalidateOcupados(massoterapeutaID int64) {
	h.Cache.Delete(ocupadosCacheKey(massoterapeutaID))
}
