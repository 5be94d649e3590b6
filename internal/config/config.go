package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	JWTSecret         []byte
	CORSOrigins       []string
	RequestTimeoutSec int
	AppPublicURL      string
	// SMTP para notificações de agendamento, confirmação de e-mail e contato
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPass      string
	SMTPFromName  string
	SMTPFromEmail string
	// Endereço interno da clínica (recebe contato e avisos de cancelamento pelo cliente)
	ClinicEmail string
	// WhatsApp (Twilio) para lembretes de consulta
	TwilioAccountSid   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	// Regras de funcionamento da clínica (configuráveis por deployment)
	AgendaTimezone string
	AgendaDias     []int // time.Weekday (0=domingo .. 6=sábado); padrão segunda a quinta
	AgendaAbertura string
	AgendaEncerra  string
}

func Load() *Config {
	// .env é opcional; em produção as variáveis vêm do ambiente (Railway).
	_ = godotenv.Load()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		jwtSecret = "default-secret-min-32-chars-required!!"
	}
	cors := os.Getenv("CORS_ORIGINS")
	if cors == "" {
		cors = "http://localhost:5173"
	}
	var origins []string
	for _, o := range strings.Split(cors, ",") {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	return &Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          []byte(jwtSecret),
		CORSOrigins:        origins,
		RequestTimeoutSec:  getEnvInt("REQUEST_TIMEOUT_SEC", 30),
		AppPublicURL:       getEnv("APP_PUBLIC_URL", "http://localhost:5173"),
		SMTPHost:           getEnv("SMTP_HOST", "localhost"),
		SMTPPort:           getEnv("SMTP_PORT", "1025"),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		SMTPFromName:       getEnv("SMTP_FROM_NAME", "HM Massoterapia"),
		SMTPFromEmail:      getEnv("SMTP_FROM_EMAIL", "noreply@localhost"),
		ClinicEmail:        getEnv("CLINIC_EMAIL", "contato@localhost"),
		TwilioAccountSid:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),
		AgendaTimezone:     getEnv("AGENDA_TIMEZONE", "America/Sao_Paulo"),
		AgendaDias:         getEnvDays("AGENDA_DIAS", []int{1, 2, 3, 4}), // seg-qui
		AgendaAbertura:     getEnv("AGENDA_ABERTURA", "08:00"),
		AgendaEncerra:      getEnv("AGENDA_ENCERRAMENTO", "18:00"),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getEnvInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] %s=%q inválido, usando %d", k, v, d)
		return d
	}
	return n
}

// getEnvDays lê uma lista de dias da semana separada por vírgula (0=domingo .. 6=sábado).
func getEnvDays(k string, d []int) []int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	var days []int
	for _, p := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 6 {
			log.Printf("[config] %s=%q inválido, usando padrão", k, v)
			return d
		}
		days = append(days, n)
	}
	if len(days) == 0 {
		return d
	}
	return days
}
