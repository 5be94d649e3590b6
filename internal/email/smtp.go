package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/smtp"
	"strconv"
	"text/template"

	"github.com/massoterapia/backend/internal/notify"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
	FromAddr string
}

func (c *Config) Send(to, subject, body string, html bool) error {
	// Validação de config e destinatário
	if to == "" {
		log.Printf("[email] erro de config: destinatário (to) vazio")
		return fmt.Errorf("destinatário de e-mail vazio")
	}
	if c.Host == "" {
		log.Printf("[email] erro de config: SMTP host vazio (destinatário=%s)", to)
		return fmt.Errorf("SMTP host não configurado")
	}
	if c.FromAddr == "" {
		log.Printf("[email] erro de config: SMTP FromAddr vazio (destinatário=%s)", to)
		return fmt.Errorf("SMTP remetente (From) não configurado")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	log.Printf("[email] enviando para %s assunto=%q via %s (from=%s)", to, subject, addr, c.FromAddr)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"Content-Type": "text/plain; charset=UTF-8",
	}
	if html {
		headers["Content-Type"] = "text/html; charset=UTF-8"
	}
	var buf bytes.Buffer
	for k, v := range headers {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(body)
	err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes())
	if err != nil {
		log.Printf("[email] falha ao enviar para %s assunto=%q: %v", to, subject, err)
		return err
	}
	log.Printf("[email] enviado com sucesso para %s assunto=%q", to, subject)
	return nil
}

// Notify implementa notify.Notifier para o agendador.
func (c *Config) Notify(_ context.Context, to, subject, body string) notify.Result {
	if err := c.Send(to, subject, body, false); err != nil {
		return notify.Result{Detail: err.Error()}
	}
	return notify.Result{OK: true}
}

// authForSend returns nil when User is empty (e.g. MailHog), so no AUTH is sent.
func (c *Config) authForSend() smtp.Auth {
	if c.User != "" {
		return smtp.PlainAuth("", c.User, c.Pass, c.Host)
	}
	return nil
}

// SendEmailConfirmation envia o link de confirmação de conta ao cliente recém
// cadastrado. Sem confirmar, o login fica bloqueado.
func (c *Config) SendEmailConfirmation(to, nome, confirmURL string) error {
	if to == "" || confirmURL == "" {
		log.Printf("[email] SendEmailConfirmation: to ou confirmURL vazio")
		return fmt.Errorf("to ou confirmURL vazio")
	}
	tpl := `Olá, {{.Nome}},

Bem-vindo(a) à Clínica de Massoterapia! Para ativar sua conta, confirme seu e-mail no link abaixo (válido por 24 horas):

{{.ConfirmURL}}

Enquanto o e-mail não for confirmado, o login fica bloqueado.

Se você não se cadastrou, ignore este e-mail.`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{"Nome": nome, "ConfirmURL": confirmURL}); err != nil {
		return err
	}
	return c.Send(to, "Confirme seu e-mail - Clínica de Massoterapia", b.String(), false)
}

func (c *Config) SendPasswordReset(to, resetURL string) error {
	if to == "" || resetURL == "" {
		log.Printf("[email] SendPasswordReset: to ou resetURL vazio")
		return fmt.Errorf("to ou resetURL vazio")
	}
	tpl := `Olá,

Você solicitou a redefinição de senha. Clique no link abaixo (válido por 1 hora):

{{.ResetURL}}

Se você não solicitou isso, ignore este e-mail.`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		log.Printf("[email] SendPasswordReset: erro ao parsear template: %v", err)
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{"ResetURL": resetURL}); err != nil {
		log.Printf("[email] SendPasswordReset: erro ao executar template: %v", err)
		return err
	}
	return c.Send(to, "Redefinição de senha - Clínica de Massoterapia", b.String(), false)
}

// SendContato encaminha a mensagem do formulário público de contato para a
// caixa da clínica, com Reply-To implícito no corpo.
func (c *Config) SendContato(clinicEmail, nome, emailRemetente, mensagem string) error {
	tpl := `Nova mensagem pelo site:

Nome: {{.Nome}}
E-mail: {{.Email}}

{{.Mensagem}}`
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.Execute(&b, map[string]string{"Nome": nome, "Email": emailRemetente, "Mensagem": mensagem}); err != nil {
		return err
	}
	return c.Send(clinicEmail, "Contato pelo site - "+nome, b.String(), false)
}

// LogConfigSummary loga um resumo da config SMTP (sem senha) para diagnóstico.
func (c *Config) LogConfigSummary() {
	auth := "não"
	if c.User != "" {
		auth = "sim (user=" + c.User + ")"
	}
	log.Printf("[email] config SMTP: host=%s port=%d from=%q auth=%s", c.Host, c.Port, c.FromAddr, auth)
	if c.Host == "" || c.FromAddr == "" {
		log.Printf("[email] aviso: host ou from vazio; envios podem falhar")
	}
}

func PortFromString(s string) int {
	n, err := strconv.Atoi(s)
	_ = err
	return n
}

// SendWithAttachment envia o corpo com um PDF anexo (agenda semanal do
// massoterapeuta).
func (c *Config) SendWithAttachment(to, subject, body string, attachmentName string, attachmentPDF []byte) error {
	if to == "" {
		log.Printf("[email] erro de config: destinatário vazio (anexo)")
		return fmt.Errorf("destinatário de e-mail vazio")
	}
	if c.Host == "" || c.FromAddr == "" {
		log.Printf("[email] erro de config: host ou from vazio (destinatário=%s)", to)
		return fmt.Errorf("SMTP host ou remetente não configurado")
	}
	port := c.Port
	if port == 0 {
		port = 25
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)
	from := c.FromAddr
	if c.FromName != "" {
		from = fmt.Sprintf("%s <%s>", c.FromName, c.FromAddr)
	}
	boundary := "boundary-massoterapia-pdf"
	var buf bytes.Buffer
	buf.WriteString("From: " + from + "\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString("Subject: " + subject + "\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: multipart/mixed; boundary=" + boundary + "\r\n\r\n")
	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n--" + boundary + "\r\n")
	buf.WriteString("Content-Type: application/pdf; name=\"" + attachmentName + "\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString("Content-Disposition: attachment; filename=\"" + attachmentName + "\"\r\n\r\n")
	// RFC 2045: base64 em MIME deve ter linhas de no máximo 76 caracteres
	encoded := base64.StdEncoding.EncodeToString(attachmentPDF)
	const lineLen = 76
	for i := 0; i < len(encoded); i += lineLen {
		end := i + lineLen
		if end > len(encoded) {
			end = len(encoded)
		}
		buf.WriteString(encoded[i:end] + "\r\n")
	}
	buf.WriteString("\r\n--" + boundary + "--\r\n")
	log.Printf("[email] enviando com anexo para %s assunto=%q via %s", to, subject, addr)
	err := smtp.SendMail(addr, c.authForSend(), c.FromAddr, []string{to}, buf.Bytes())
	if err != nil {
		log.Printf("[email] falha ao enviar anexo para %s assunto=%q: %v", to, subject, err)
		return err
	}
	log.Printf("[email] enviado com anexo para %s assunto=%q", to, subject)
	return nil
}
