// Package notify define o contrato de envio de avisos usado pelo agendador.
// Entregas são melhor-esforço: o resultado descreve o que aconteceu, nunca
// derruba a operação que o disparou.
package notify

import "context"

// Result descreve uma tentativa de envio.
type Result struct {
	OK     bool
	Detail string
}

// Notifier envia um aviso de texto simples para um destinatário.
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) Result
}

// Func adapta uma função a Notifier, útil em testes.
type Func func(ctx context.Context, to, subject, body string) Result

func (f Func) Notify(ctx context.Context, to, subject, body string) Result {
	return f(ctx, to, subject, body)
}
