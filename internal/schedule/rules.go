package schedule

import (
	"fmt"
	"time"

	"github.com/massoterapia/backend/internal/config"
)

// Rules são as regras de funcionamento da clínica. Vêm de configuração
// (mudam por deployment: feriados, horário estendido), nunca de constantes.
type Rules struct {
	Zone *time.Location
	// Dias com atendimento.
	Dias map[time.Weekday]bool
	// Janela de atendimento em segundos desde meia-noite, limites inclusivos.
	AberturaSeg int
	EncerraSeg  int
	// Rótulos "HH:MM" para mensagens de erro.
	AberturaStr string
	EncerraStr  string
}

// RulesFromConfig monta as regras a partir da configuração do processo.
func RulesFromConfig(cfg *config.Config) (Rules, error) {
	loc, err := time.LoadLocation(cfg.AgendaTimezone)
	if err != nil {
		return Rules{}, fmt.Errorf("AGENDA_TIMEZONE %q: %w", cfg.AgendaTimezone, err)
	}
	abertura, err := parseHoraMinuto(cfg.AgendaAbertura)
	if err != nil {
		return Rules{}, fmt.Errorf("AGENDA_ABERTURA %q: %w", cfg.AgendaAbertura, err)
	}
	encerra, err := parseHoraMinuto(cfg.AgendaEncerra)
	if err != nil {
		return Rules{}, fmt.Errorf("AGENDA_ENCERRAMENTO %q: %w", cfg.AgendaEncerra, err)
	}
	dias := make(map[time.Weekday]bool, len(cfg.AgendaDias))
	for _, d := range cfg.AgendaDias {
		dias[time.Weekday(d)] = true
	}
	return Rules{
		Zone:        loc,
		Dias:        dias,
		AberturaSeg: abertura,
		EncerraSeg:  encerra,
		AberturaStr: cfg.AgendaAbertura,
		EncerraStr:  cfg.AgendaEncerra,
	}, nil
}

// Validate aceita ou rejeita o instante t. As três checagens são independentes
// e a ordem é fixa e documentada: passado, depois dia, depois horário.
func (r Rules) Validate(t, now time.Time) error {
	t = NormalizeInstant(t, r.Zone)
	now = NormalizeInstant(now, r.Zone)
	if t.Before(now) {
		return ErrPastScheduling
	}
	if !r.Dias[t.Weekday()] {
		return &ClosedDayError{Weekday: t.Weekday()}
	}
	seg := t.Hour()*3600 + t.Minute()*60 + t.Second()
	if seg < r.AberturaSeg || seg > r.EncerraSeg {
		return &ClosedHourError{Abertura: r.AberturaStr, Encerra: r.EncerraStr}
	}
	return nil
}

func parseHoraMinuto(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*3600 + t.Minute()*60, nil
}
