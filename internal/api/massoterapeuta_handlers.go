package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/auth"
	"github.com/massoterapia/backend/internal/pdf"
	"github.com/massoterapia/backend/internal/repo"
	"github.com/massoterapia/backend/internal/schedule"
)

// AgendaMassoterapeuta lista a agenda do profissional autenticado.
// ?status=pendente,confirmado filtra; vazio lista tudo.
func (h *Handler) AgendaMassoterapeuta(w http.ResponseWriter, r *http.Request) {
	massoID := auth.UserIDFrom(r.Context())
	var filtro []string
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			st, err := schedule.ParseStatus(p)
			if err != nil {
				writeErro(w, http.StatusBadRequest, err.Error())
				return
			}
			filtro = append(filtro, string(st))
		}
	}
	list, err := repo.AgendamentosDoMassoterapeuta(r.Context(), h.DB, massoID, filtro)
	if err != nil {
		log.Printf("[api] agenda do massoterapeuta %d: %v", massoID, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	type item struct {
		AgendamentoResponse
		Cliente         string `json:"cliente"`
		ClienteTelefone string `json:"cliente_telefone"`
		ClienteEmail    string `json:"cliente_email"`
	}
	out := make([]item, 0, len(list))
	for i := range list {
		out = append(out, item{
			AgendamentoResponse: h.agendamentoResponse(&list[i].Agendamento, ""),
			Cliente:             list[i].ClienteNome,
			ClienteTelefone:     list[i].ClienteTelefone,
			ClienteEmail:        list[i].ClienteEmail,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type AtualizarStatusRequest struct {
	Status string `json:"status"`
	Motivo string `json:"motivo"`
}

// AtualizarStatusAgendamento aplica confirmar/cancelar/concluir em um
// agendamento do profissional autenticado. Cancelamento exige motivo, que
// segue no aviso ao cliente.
func (h *Handler) AtualizarStatusAgendamento(w http.ResponseWriter, r *http.Request) {
	massoID := auth.UserIDFrom(r.Context())
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErro(w, http.StatusBadRequest, "id inválido")
		return
	}
	var req AtualizarStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErro(w, http.StatusBadRequest, "corpo inválido")
		return
	}
	to, err := schedule.ParseStatus(req.Status)
	if err != nil {
		writeErro(w, http.StatusBadRequest, err.Error())
		return
	}
	actor := schedule.Actor{ID: massoID, Role: auth.RoleMassoterapeuta}
	res, err := h.Scheduler.Transition(r.Context(), id, actor, to, strings.TrimSpace(req.Motivo))
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	h.invalidateOcupados(massoID)
	writeJSON(w, http.StatusOK, h.agendamentoResponse(res.Agendamento, res.Aviso))
}

// MeusClientes lista todos os clientes que já agendaram com o profissional,
// com total de sessões e data da última.
func (h *Handler) MeusClientes(w http.ResponseWriter, r *http.Request) {
	massoID := auth.UserIDFrom(r.Context())
	list, err := repo.ClientesDoMassoterapeuta(r.Context(), h.DB, massoID)
	if err != nil {
		log.Printf("[api] clientes do massoterapeuta %d: %v", massoID, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	type item struct {
		ID           int64  `json:"id"`
		Nome         string `json:"nome"`
		Telefone     string `json:"telefone"`
		Email        string `json:"email"`
		TotalSessoes int64  `json:"total_sessoes"`
		UltimaSessao string `json:"ultima_sessao"`
	}
	out := make([]item, 0, len(list))
	for _, c := range list {
		out = append(out, item{
			ID:           c.ID,
			Nome:         c.Nome,
			Telefone:     c.Telefone,
			Email:        c.Email,
			TotalSessoes: c.TotalSessoes,
			UltimaSessao: c.UltimaSessao.In(h.Scheduler.Rules.Zone).Format("2006-01-02T15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// AtualizarPerfilMassoterapeuta atualiza nome e telefone do profissional
// autenticado.
func (h *Handler) AtualizarPerfilMassoterapeuta(w http.ResponseWriter, r *http.Request) {
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
	err := repo.UpdatePerfilMassoterapeuta(r.Context(), h.DB, auth.UserIDFrom(r.Context()), req.Nome, NormalizeTelefone(req.Telefone))
	if err != nil {
		log.Printf("[api] atualizar perfil do massoterapeuta: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensagem": "perfil atualizado"})
}

// BuscarPacientes procura clientes por nome entre os que já agendaram com o
// profissional, com as sessões divididas em futuras e passadas.
func (h *Handler) BuscarPacientes(w http.ResponseWriter, r *http.Request) {
	massoID := auth.UserIDFrom(r.Context())
	nome := strings.TrimSpace(r.URL.Query().Get("nome"))
	if nome == "" {
		writeErro(w, http.StatusBadRequest, "parâmetro nome é obrigatório")
		return
	}
	pacientes, err := repo.BuscarPacientesComHistorico(r.Context(), h.DB, massoID, nome, h.Scheduler.Clock.Now())
	if err != nil {
		log.Printf("[api] buscar pacientes %q: %v", nome, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	type sessao struct {
		ID       int64   `json:"id"`
		DataHora string  `json:"data_hora"`
		Status   string  `json:"status"`
		Sintomas *string `json:"sintomas,omitempty"`
	}
	type item struct {
		ID       int64    `json:"id"`
		Nome     string   `json:"nome"`
		Telefone string   `json:"telefone"`
		Email    string   `json:"email"`
		Futuros  []sessao `json:"futuros"`
		Passados []sessao `json:"passados"`
	}
	conv := func(list []repo.Agendamento) []sessao {
		out := make([]sessao, 0, len(list))
		for _, a := range list {
			out = append(out, sessao{
				ID:       a.ID,
				DataHora: a.DataHora.In(h.Scheduler.Rules.Zone).Format("2006-01-02T15:04:05"),
				Status:   a.Status,
				Sintomas: a.Sintomas,
			})
		}
		return out
	}
	out := make([]item, 0, len(pacientes))
	for _, p := range pacientes {
		out = append(out, item{
			ID:       p.Cliente.ID,
			Nome:     p.Cliente.Nome,
			Telefone: p.Cliente.Telefone,
			Email:    p.Cliente.Email,
			Futuros:  conv(p.Futuros),
			Passados: conv(p.Passados),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ExportarAgendaPDF gera o PDF da agenda do profissional no período pedido
// (?inicio=AAAA-MM-DD&fim=AAAA-MM-DD; padrão: próximos 7 dias).
func (h *Handler) ExportarAgendaPDF(w http.ResponseWriter, r *http.Request) {
	massoID := auth.UserIDFrom(r.Context())
	zone := h.Scheduler.Rules.Zone
	agora := h.Scheduler.Clock.Now().In(zone)

	inicio := time.Date(agora.Year(), agora.Month(), agora.Day(), 0, 0, 0, 0, zone)
	fim := inicio.AddDate(0, 0, 7)
	if q := r.URL.Query().Get("inicio"); q != "" {
		d, err := time.ParseInLocation("2006-01-02", q, zone)
		if err != nil {
			writeErro(w, http.StatusBadRequest, "inicio inválido (use AAAA-MM-DD)")
			return
		}
		inicio = d
	}
	if q := r.URL.Query().Get("fim"); q != "" {
		d, err := time.ParseInLocation("2006-01-02", q, zone)
		if err != nil {
			writeErro(w, http.StatusBadRequest, "fim inválido (use AAAA-MM-DD)")
			return
		}
		fim = d.AddDate(0, 0, 1)
	}
	if !fim.After(inicio) {
		writeErro(w, http.StatusBadRequest, "período inválido")
		return
	}

	m, err := repo.MassoterapeutaPorID(r.Context(), h.DB, massoID)
	if err != nil || m == nil {
		log.Printf("[api] exportar agenda: massoterapeuta %d: %v", massoID, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	list, err := repo.AgendamentosDoMassoterapeuta(r.Context(), h.DB, massoID, nil)
	if err != nil {
		log.Printf("[api] exportar agenda do massoterapeuta %d: %v", massoID, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	var entries []pdf.AgendaEntry
	for i := len(list) - 1; i >= 0; i-- { // agenda vem DESC; o PDF quer ASC
		a := list[i]
		t := a.DataHora.In(zone)
		if t.Before(inicio) || !t.Before(fim) {
			continue
		}
		sintomas := ""
		if a.Sintomas != nil {
			sintomas = *a.Sintomas
		}
		entries = append(entries, pdf.AgendaEntry{
			DataHora:    t,
			ClienteNome: a.ClienteNome,
			Telefone:    a.ClienteTelefone,
			Status:      a.Status,
			Sintomas:    sintomas,
		})
	}

	agendaURL := h.Cfg.AppPublicURL + "/massoterapeuta/agenda"
	out, err := pdf.BuildAgendaPDF(m.Nome, inicio, fim.AddDate(0, 0, -1), entries, agendaURL)
	if err != nil {
		log.Printf("[api] gerar PDF da agenda: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro ao gerar PDF")
		return
	}

	// ?email=1 envia o PDF para o próprio profissional em vez de baixar.
	if r.URL.Query().Get("email") == "1" && h.sendAgendaPDF != nil {
		nomeArquivo := "agenda-" + inicio.Format("2006-01-02") + ".pdf"
		corpo := "Segue em anexo a agenda do período solicitado."
		if err := h.sendAgendaPDF(m.Email, "Sua agenda - Clínica de Massoterapia", corpo, nomeArquivo, out); err != nil {
			log.Printf("[api] enviar agenda por e-mail para %s: %v", m.Email, err)
			writeErro(w, http.StatusInternalServerError, "erro ao enviar e-mail")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"mensagem": "agenda enviada para " + m.Email})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="agenda.pdf"`)
	_, _ = w.Write(out)
}

// HistoricoAgendamento devolve a trilha de mudanças de status de um
// agendamento do profissional autenticado.
func (h *Handler) HistoricoAgendamento(w http.ResponseWriter, r *http.Request) {
	massoID := auth.UserIDFrom(r.Context())
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErro(w, http.StatusBadRequest, "id inválido")
		return
	}
	det, err := repo.BuscaDetalheAgendamento(r.Context(), h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && det.MassoterapeutaID != massoID) {
		writeErro(w, http.StatusNotFound, "agendamento não encontrado")
		return
	}
	if err != nil {
		log.Printf("[api] detalhe do agendamento %d: %v", id, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	trilha, err := repo.HistoricoDoAgendamento(r.Context(), h.DB, id)
	if err != nil {
		log.Printf("[api] histórico do agendamento %d: %v", id, err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
		return
	}
	type item struct {
		De       string  `json:"de"`
		Para     string  `json:"para"`
		AtorRole string  `json:"ator_role"`
		Motivo   *string `json:"motivo,omitempty"`
		Em       string  `json:"em"`
	}
	out := make([]item, 0, len(trilha))
	for _, t := range trilha {
		out = append(out, item{
			De:       t.StatusDe,
			Para:     t.StatusPara,
			AtorRole: t.AtorRole,
			Motivo:   t.Motivo,
			Em:       t.CriadoEm.In(h.Scheduler.Rules.Zone).Format("2006-01-02T15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
