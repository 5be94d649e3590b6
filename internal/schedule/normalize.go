package schedule

import (
	"strings"
	"time"
)

// Formatos aceitos para data/hora vinda do frontend. Sem offset, o valor é
// interpretado como hora de parede no fuso de referência, não UTC; as
// comparações com "agora" e com a janela de atendimento dependem disso.
var layoutsDataHora = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDateTime converte a string recebida em um instante no fuso loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	in := strings.TrimSpace(s)
	for _, layout := range layoutsDataHora {
		if t, err := time.ParseInLocation(layout, in, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidTimeError{Input: s}
}

// NormalizeInstant ancora um instante já timezone-aware no fuso de referência.
// Toda aritmética de fuso do sistema passa por aqui ou por ParseDateTime.
func NormalizeInstant(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}
