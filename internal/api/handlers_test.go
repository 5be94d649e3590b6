package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/massoterapia/backend/internal/config"
	"github.com/massoterapia/backend/internal/schedule"
)

func TestWriteScheduleError_Mapeamento(t *testing.T) {
	cases := []struct {
		nome   string
		err    error
		status int
	}{
		{"data inválida", &schedule.InvalidTimeError{Input: "x"}, http.StatusBadRequest},
		{"passado", schedule.ErrPastScheduling, http.StatusBadRequest},
		{"dia fechado", &schedule.ClosedDayError{Weekday: time.Friday}, http.StatusBadRequest},
		{"hora fechada", &schedule.ClosedHourError{Abertura: "08:00", Encerra: "18:00"}, http.StatusBadRequest},
		{"motivo curto", schedule.ErrMotivoObrigatorio, http.StatusBadRequest},
		{"transição ilegal", &schedule.InvalidTransitionError{From: schedule.StatusPendente, To: schedule.StatusConcluido}, http.StatusBadRequest},
		{"conflito", &schedule.ConflictError{Titular: "massoterapeuta"}, http.StatusConflict},
		{"terminal", &schedule.TerminalStateError{From: schedule.StatusCancelado}, http.StatusConflict},
		{"não encontrado", schedule.ErrNotFound, http.StatusNotFound},
		{"banco", &schedule.StorageError{Op: "x", Err: errors.New("down")}, http.StatusInternalServerError},
		{"desconhecido", errors.New("qualquer"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeScheduleError(rec, tc.err)
		if rec.Code != tc.status {
			t.Errorf("%s: got %d, want %d", tc.nome, rec.Code, tc.status)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Errorf("%s: corpo não é JSON: %v", tc.nome, err)
			continue
		}
		if body["erro"] == "" {
			t.Errorf("%s: resposta sem campo erro", tc.nome)
		}
	}
}

func TestWriteScheduleError_NaoVazaDetalheDeBanco(t *testing.T) {
	rec := httptest.NewRecorder()
	writeScheduleError(rec, &schedule.StorageError{Op: "inserir", Err: errors.New("pq: password authentication failed")})
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("detalhe do banco vazou na resposta")
	}
}

func contatoHandler() *Handler {
	return &Handler{Cfg: &config.Config{ClinicEmail: "clinica@teste.local"}}
}

func TestContato_Valido(t *testing.T) {
	h := contatoHandler()
	var gotTo, gotNome string
	h.SetSendContato(func(clinicEmail, nome, email, mensagem string) error {
		gotTo, gotNome = clinicEmail, nome
		return nil
	})
	body, _ := json.Marshal(ContatoRequest{Nome: "Maria", Email: "maria@x.com", Mensagem: "Gostaria de saber os horários disponíveis."})
	rec := httptest.NewRecorder()
	h.Contato(rec, httptest.NewRequest(http.MethodPost, "/api/contato", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if gotTo != "clinica@teste.local" || gotNome != "Maria" {
		t.Errorf("envio: to=%q nome=%q", gotTo, gotNome)
	}
}

func TestContato_Invalido(t *testing.T) {
	h := contatoHandler()
	h.SetSendContato(func(clinicEmail, nome, email, mensagem string) error { return nil })
	cases := []ContatoRequest{
		{Nome: "", Email: "maria@x.com", Mensagem: "mensagem com tamanho ok aqui"},
		{Nome: "Maria", Email: "sem-arroba", Mensagem: "mensagem com tamanho ok aqui"},
		{Nome: "Maria", Email: "maria@x.com", Mensagem: "curta"},
	}
	for i, c := range cases {
		body, _ := json.Marshal(c)
		rec := httptest.NewRecorder()
		h.Contato(rec, httptest.NewRequest(http.MethodPost, "/api/contato", bytes.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("caso %d: got %d, want 400", i, rec.Code)
		}
	}
}

func TestContato_FalhaDeEnvio(t *testing.T) {
	h := contatoHandler()
	h.SetSendContato(func(clinicEmail, nome, email, mensagem string) error {
		return errors.New("smtp down")
	})
	body, _ := json.Marshal(ContatoRequest{Nome: "Maria", Email: "maria@x.com", Mensagem: "Gostaria de agendar uma avaliação."})
	rec := httptest.NewRecorder()
	h.Contato(rec, httptest.NewRequest(http.MethodPost, "/api/contato", bytes.NewReader(body)))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("falha de envio: got %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "smtp") {
		t.Error("detalhe do SMTP vazou na resposta")
	}
}
