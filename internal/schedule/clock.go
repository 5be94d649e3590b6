package schedule

import "time"

// Clock fornece o "agora" para as validações. Substituível em testes;
// nenhuma regra de negócio lê o relógio do sistema diretamente.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock é o relógio de produção.
func SystemClock() Clock { return systemClock{} }

// FixedClock devolve sempre o mesmo instante (para testes).
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
