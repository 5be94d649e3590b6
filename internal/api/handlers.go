package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/cache"
	"github.com/massoterapia/backend/internal/config"
	"github.com/massoterapia/backend/internal/schedule"
)

// Handler agrupa as dependências dos endpoints HTTP. Os envios de e-mail são
// injetados por setter para os testes substituírem sem SMTP de verdade.
type Handler struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Cache     *cache.TTL
	Scheduler *schedule.Scheduler

	sendEmailConfirmation func(to, nome, confirmURL string) error
	sendPasswordReset     func(to, resetURL string) error
	sendContato           func(clinicEmail, nome, email, mensagem string) error
	sendAgendaPDF         func(to, subject, body, attachmentName string, pdf []byte) error
}

func (h *Handler) SetSendEmailConfirmation(fn func(to, nome, confirmURL string) error) {
	h.sendEmailConfirmation = fn
}
func (h *Handler) SetSendPasswordReset(fn func(to, resetURL string) error) {
	h.sendPasswordReset = fn
}
func (h *Handler) SetSendContato(fn func(clinicEmail, nome, email, mensagem string) error) {
	h.sendContato = fn
}
func (h *Handler) SetSendAgendaPDF(fn func(to, subject, body, attachmentName string, pdf []byte) error) {
	h.sendAgendaPDF = fn
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErro(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"erro": msg})
}

// writeScheduleError converte os erros do núcleo de agendamento em respostas
// HTTP. Qualquer erro fora do catálogo vira 500 genérico (o detalhe só vai
// para o log).
func writeScheduleError(w http.ResponseWriter, err error) {
	var (
		invalidTime  *schedule.InvalidTimeError
		closedDay    *schedule.ClosedDayError
		closedHour   *schedule.ClosedHourError
		conflict     *schedule.ConflictError
		terminal     *schedule.TerminalStateError
		invalidTrans *schedule.InvalidTransitionError
		storage      *schedule.StorageError
	)
	switch {
	case errors.As(err, &invalidTime),
		errors.Is(err, schedule.ErrPastScheduling),
		errors.As(err, &closedDay),
		errors.As(err, &closedHour),
		errors.Is(err, schedule.ErrMotivoObrigatorio),
		errors.As(err, &invalidTrans):
		writeErro(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict), errors.As(err, &terminal):
		writeErro(w, http.StatusConflict, err.Error())
	case errors.Is(err, schedule.ErrNotFound):
		writeErro(w, http.StatusNotFound, err.Error())
	case errors.As(err, &storage):
		log.Printf("[api] erro de banco: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
	default:
		log.Printf("[api] erro inesperado: %v", err)
		writeErro(w, http.StatusInternalServerError, "erro interno")
	}
}
