package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/services"
	appweb "ledger/web"
)

// Ledger is the service surface the handlers call. services.LedgerService implements it.
type Ledger interface {
	LoadYear(ctx context.Context, year int) (core.YearView, error)

	ListRecurringItems(ctx context.Context) ([]core.RecurringItem, error)
	CreateRecurringItem(ctx context.Context, it core.RecurringItem) (core.RecurringItem, error)
	UpdateRecurringItem(ctx context.Context, it core.RecurringItem) (core.RecurringItem, error)
	DeleteRecurringItem(ctx context.Context, id string) (core.RecurringItem, error)
	CommitInstallment(ctx context.Context, req services.InstallmentRequest) (core.RecurringItem, error)
	CommitRecurringIncome(ctx context.Context, title string, amount core.Money, category string, start core.Date) (core.RecurringItem, error)

	SaveRecord(ctx context.Context, rec core.OneOffRecord) (core.OneOffRecord, error)
	DeleteRecord(ctx context.Context, id string) (core.OneOffRecord, error)
	DeleteEntry(ctx context.Context, e core.LedgerEntry) (int, error)

	CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error)
	CreateLinkedAccount(ctx context.Context, a core.LinkedAccount) (core.LinkedAccount, error)
	ListLinkedAccounts(ctx context.Context) ([]core.LinkedAccount, error)

	DefaultIncomeDate(incomeTypeID string) core.Date
	ChangeYear(it core.RecurringItem) int
}

// ToolDirectory resolves tool slugs. storage.SQLiteRepository implements it.
type ToolDirectory interface {
	GetTool(ctx context.Context, slug string) (core.Tool, error)
	ListTools(ctx context.Context) ([]core.Tool, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CacheStats exposes cache effectiveness for /metrics.
type CacheStats interface {
	Stats() cache.Stats
}

// Options configures NewServer. Ledger and Tools are required.
type Options struct {
	Addr              string
	Ledger            Ledger
	Tools             ToolDirectory
	Health            HealthChecker
	Views             CacheStats
	Logger            *log.Logger
	CurrencySymbol    string
	RequestsPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    Ledger
	tools     ToolDirectory
	health    HealthChecker
	views     CacheStats
	logger    *log.Logger
	currency  string

	limiter  *ratelimit.Limiter
	detector *security.Detector

	started      time.Time
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	rlConfig := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RequestsPerMinute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:   opts.Ledger,
		tools:    opts.Tools,
		health:   opts.Health,
		views:    opts.Views,
		logger:   logger,
		currency: opts.CurrencySymbol,
		limiter:  ratelimit.NewLimiter(rlConfig),
		detector: security.NewDetector(),
		started:  time.Now(),
		now:      time.Now,
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/tool/{slug}", s.handleTool)
	mux.HandleFunc("/api/tools", s.handleListTools)

	mux.HandleFunc("/api/ledger", s.handleLedger)
	mux.HandleFunc("/api/ledger/grid", s.handleGrid)
	mux.HandleFunc("/api/ledger/export.xlsx", s.handleExport)
	mux.HandleFunc("/ui/grid", s.handleGridPartial)

	mux.HandleFunc("/api/recurring", s.handleRecurring)
	mux.HandleFunc("/api/recurring/update", s.handleUpdateRecurring)
	mux.HandleFunc("/api/recurring/delete", s.handleDeleteRecurring)
	mux.HandleFunc("/api/installments", s.handleCreateInstallment)
	mux.HandleFunc("/api/installments/quote", s.handleInstallmentQuote)

	mux.HandleFunc("/api/records", s.handleCreateRecord)
	mux.HandleFunc("/api/records/update", s.handleUpdateRecord)
	mux.HandleFunc("/api/records/delete", s.handleDeleteRecord)
	mux.HandleFunc("/api/entries/delete", s.handleDeleteEntry)

	mux.HandleFunc("/api/payment-methods", s.handlePaymentMethods)
	mux.HandleFunc("/api/accounts", s.handleLinkedAccounts)
	mux.HandleFunc("/api/templates", s.handleTemplates)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost, http.MethodPut, http.MethodDelete)(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = log.AccessLogMiddleware(s.detector.ExtractClientIP)(h)
	h = log.RequestIDMiddleware(h)
	h = log.Middleware(logger)(h)
	s.Handler = h

	return s
}

// Shutdown stops the rate limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return formatMoney(s.currency, m) },
		"month": func(i int) string { return monthNames[i] },
	}
}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func (s *Server) currentYear() int {
	return s.now().Year()
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"error", err,
			"template", name,
			log.FieldOperation, log.OpRender)
	}
}
