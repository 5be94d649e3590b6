package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/massoterapia/backend/internal/api"
	"github.com/massoterapia/backend/internal/auth"
	"github.com/massoterapia/backend/internal/cache"
	"github.com/massoterapia/backend/internal/config"
	"github.com/massoterapia/backend/internal/email"
	"github.com/massoterapia/backend/internal/middleware"
	"github.com/massoterapia/backend/internal/migrate"
	"github.com/massoterapia/backend/internal/schedule"
	"github.com/massoterapia/backend/internal/seed"
)

func main() {
	cfg := config.Load()
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.Fatalf("conexão postgres: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("pool postgres: %v", err)
		}
		defer sqlDB.Close()
		if err := sqlDB.Ping(); err != nil {
			log.Fatalf("ping postgres: %v", err)
		}
		if err := migrate.Run(context.Background(), db, "migrations"); err != nil {
			log.Fatalf("migrations: %v", err)
		}
		if err := seed.Run(context.Background(), db); err != nil {
			log.Printf("seed (ignorado se já aplicado): %v", err)
		}
	} else {
		log.Fatalf("DATABASE_URL é obrigatório")
	}

	rules, err := schedule.RulesFromConfig(cfg)
	if err != nil {
		log.Fatalf("regras de agenda: %v", err)
	}

	mailCfg := &email.Config{
		Host:     cfg.SMTPHost,
		Port:     email.PortFromString(cfg.SMTPPort),
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
		FromName: cfg.SMTPFromName,
		FromAddr: cfg.SMTPFromEmail,
	}
	mailCfg.LogConfigSummary()

	scheduler := &schedule.Scheduler{
		DB:          db,
		Rules:       rules,
		Clock:       schedule.SystemClock(),
		Notifier:    mailCfg,
		ClinicEmail: cfg.ClinicEmail,
	}

	h := &api.Handler{DB: db, Cfg: cfg, Cache: cache.New(30 * time.Second), Scheduler: scheduler}
	h.SetSendEmailConfirmation(mailCfg.SendEmailConfirmation)
	h.SetSendPasswordReset(mailCfg.SendPasswordReset)
	h.SetSendContato(mailCfg.SendContato)
	h.SetSendAgendaPDF(mailCfg.SendWithAttachment)

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	// Rotas públicas
	pub := r.PathPrefix("/api").Subrouter()
	pub.HandleFunc("/clientes", h.RegistrarCliente).Methods(http.MethodPost)
	pub.HandleFunc("/clientes/login", h.LoginCliente).Methods(http.MethodPost)
	pub.HandleFunc("/clientes/confirmar_email", h.ConfirmarEmail).Methods(http.MethodGet)
	pub.HandleFunc("/clientes/reenviar_confirmacao", h.ReenviarConfirmacao).Methods(http.MethodPost)
	pub.HandleFunc("/massoterapeutas/login", h.LoginMassoterapeuta).Methods(http.MethodPost)
	pub.HandleFunc("/auth/esqueci_senha", h.EsqueciSenha).Methods(http.MethodPost)
	pub.HandleFunc("/auth/redefinir_senha", h.RedefinirSenha).Methods(http.MethodPost)
	pub.HandleFunc("/contato", h.Contato).Methods(http.MethodPost)

	// Rotas autenticadas
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))

	soCliente := middleware.RequireRole(auth.RoleCliente)
	soMasso := middleware.RequireRole(auth.RoleMassoterapeuta)

	protected.Handle("/clientes/perfil", soCliente(http.HandlerFunc(h.MeuPerfil))).Methods(http.MethodGet)
	protected.Handle("/clientes/perfil", soCliente(http.HandlerFunc(h.AtualizarPerfil))).Methods(http.MethodPut)
	protected.Handle("/clientes/perfil", soCliente(http.HandlerFunc(h.ExcluirConta))).Methods(http.MethodDelete)
	protected.Handle("/clientes/agendamentos", soCliente(http.HandlerFunc(h.Agendar))).Methods(http.MethodPost)
	protected.Handle("/clientes/agendamentos", soCliente(http.HandlerFunc(h.MeusAgendamentos))).Methods(http.MethodGet)
	protected.Handle("/clientes/agendamentos", soCliente(http.HandlerFunc(h.LimparHistorico))).Methods(http.MethodDelete)
	protected.Handle("/clientes/agendamentos/{id}/cancelar", soCliente(http.HandlerFunc(h.CancelarAgendamentoCliente))).Methods(http.MethodPut)
	protected.Handle("/clientes/massoterapeutas", soCliente(http.HandlerFunc(h.ListarMassoterapeutas))).Methods(http.MethodGet)
	protected.Handle("/clientes/massoterapeutas/{id}/horarios_ocupados", soCliente(http.HandlerFunc(h.HorariosOcupados))).Methods(http.MethodGet)

	protected.Handle("/massoterapeutas/agendamentos", soMasso(http.HandlerFunc(h.AgendaMassoterapeuta))).Methods(http.MethodGet)
	protected.Handle("/massoterapeutas/agendamentos/{id}/status", soMasso(http.HandlerFunc(h.AtualizarStatusAgendamento))).Methods(http.MethodPut)
	protected.Handle("/massoterapeutas/agendamentos/{id}/historico", soMasso(http.HandlerFunc(h.HistoricoAgendamento))).Methods(http.MethodGet)
	protected.Handle("/massoterapeutas/perfil", soMasso(http.HandlerFunc(h.AtualizarPerfilMassoterapeuta))).Methods(http.MethodPut)
	protected.Handle("/massoterapeutas/clientes", soMasso(http.HandlerFunc(h.MeusClientes))).Methods(http.MethodGet)
	protected.Handle("/massoterapeutas/pacientes", soMasso(http.HandlerFunc(h.BuscarPacientes))).Methods(http.MethodGet)
	protected.Handle("/massoterapeutas/agenda/pdf", soMasso(http.HandlerFunc(h.ExportarAgendaPDF))).Methods(http.MethodGet)

	chain := middleware.Recover(middleware.RequestID(middleware.Timeout(cfg.RequestTimeoutSec)(middleware.CORS(cfg.CORSOrigins)(middleware.Gzip(r)))))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("backend listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("backend stopped")
}
