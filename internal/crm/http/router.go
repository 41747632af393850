package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/abodyssee/crm/internal/crm/service"
	"github.com/abodyssee/crm/internal/crm/session"
	"github.com/abodyssee/crm/pkg/httpx"
	"github.com/abodyssee/crm/pkg/slogx"

	_ "github.com/abodyssee/crm/api/crm" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Config selects the optional parts of the router.
type Config struct {
	BuildVersion string
	// LoginPath is where the login page lives and where page guards redirect.
	LoginPath string
	// PublicDir is served at / when set.
	PublicDir string
	// Production hides error details and the swagger UI.
	Production bool
	// TrustedProxyHops is the number of reverse proxies whose
	// X-Forwarded-For entries are believed. Zero uses the connection address.
	TrustedProxyHops int

	CORS       httpx.CORSConfig
	LoginLimit httpx.FailureLimitConfig
	// Metrics is nil when /metrics is disabled.
	Metrics *Metrics
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	cfg       Config
	startTime time.Time
	logger    *slog.Logger
	db        Pinger
	sessions  *session.Manager
	files     *FileResolver
	errs      errorWriter
	clientIP  httpx.KeyExtractor

	AuthService     *service.AuthService
	ClientService   *service.ClientService
	ExchangeService *service.ExchangeService
	ContactService  *service.ContactService
}

func NewRouter(
	cfg Config,
	sessions *session.Manager,
	files *FileResolver,
	db Pinger,
	logger *slog.Logger,
) *Router {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		cfg:       cfg,
		startTime: time.Now(),
		logger:    logger,
		db:        db,
		sessions:  sessions,
		files:     files,
		errs:      errorWriter{details: !cfg.Production},
		clientIP:  httpx.ForwardedIPExtractor(cfg.TrustedProxyHops),
	}

	// Metrics must stay last: it reads the pattern the mux matched.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders,
		httpx.CORS(cfg.CORS),
		sessions.Attach,
		cfg.Metrics.Middleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerClients()
	r.registerExchanges()
	r.registerContact()
	r.registerPages()
	r.registerSystem()

	if !r.cfg.Production {
		r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			AB Odyssée CRM API
//	@version		0.1.0
//	@description	Client and exchange management for the AB Odyssée team, plus the public contact form relay.
//	@description
//	@description				Staff authenticate with a session cookie obtained from /api/auth/login.
//
//	@contact.name				AB Odyssée
//
//	@host						localhost:3000
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							header
//	@name						Cookie
//	@description				Session cookie set by /api/auth/login. Format: "crm-session={token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) limitByIP(cfg httpx.RateLimitConfig) httpx.Middleware {
	return httpx.RateLimitMiddleware(cfg, r.clientIP)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService: r.AuthService,
		Sessions:    r.sessions,
		errs:        r.errs,
	}

	limit := r.cfg.LoginLimit
	if limit.Message == "" {
		limit.Message = "Trop de tentatives de connexion. Veuillez réessayer dans 15 minutes."
	}
	if limit.OnFailure == nil {
		limit.OnFailure = r.cfg.Metrics.loginFailure
	}
	if limit.OnLockout == nil {
		limit.OnLockout = r.cfg.Metrics.loginLockout
	}
	lockout := httpx.NewFailureLimiter(limit)

	// GET /status - public, never refreshes the session
	r.Mux.Handle("GET /api/auth/status",
		httpx.Chain(http.HandlerFunc(h.HandleStatus),
			r.limitByIP(httpx.PublicLimit),
		),
	)

	// POST /login - failed attempts lock the address out before any lookup
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			lockout.Middleware(r.clientIP),
		),
	)

	// POST /logout - not guarded, a stale cookie must still be cleared
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.limitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{
		ClientService:   r.ClientService,
		ExchangeService: r.ExchangeService,
		errs:            r.errs,
	}

	read := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.sessions.RequireAPI, httpx.RateLimitByUser(httpx.LenientLimit, r.clientIP))
	}
	write := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, r.sessions.RequireAPI, httpx.RateLimitByUser(httpx.ModerateLimit, r.clientIP))
	}

	r.Mux.Handle("GET /api/clients", read(h.HandleList))
	r.Mux.Handle("POST /api/clients", write(h.HandleCreate))
	r.Mux.Handle("GET /api/clients/{id}", read(h.HandleGet))
	r.Mux.Handle("PUT /api/clients/{id}", write(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/clients/{id}", write(h.HandleDelete))
	r.Mux.Handle("GET /api/clients/{id}/complet", read(h.HandleComplete))
	r.Mux.Handle("GET /api/clients/{id}/echanges", read(h.HandleExchanges))
}

func (r *Router) registerExchanges() {
	h := &ExchangesHandler{
		ExchangeService: r.ExchangeService,
		errs:            r.errs,
	}

	r.Mux.Handle("GET /api/echanges",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			r.sessions.RequireAPI,
			httpx.RateLimitByUser(httpx.LenientLimit, r.clientIP),
		),
	)

	writes := map[string]http.HandlerFunc{
		"POST /api/echanges":        h.HandleCreate,
		"PUT /api/echanges/{id}":    h.HandleUpdate,
		"DELETE /api/echanges/{id}": h.HandleDelete,
	}
	for pattern, fn := range writes {
		r.Mux.Handle(pattern,
			httpx.Chain(fn,
				r.sessions.RequireAPI,
				httpx.RateLimitByUser(httpx.ModerateLimit, r.clientIP),
			),
		)
	}
}

func (r *Router) registerContact() {
	h := &ContactHandler{
		ContactService: r.ContactService,
		Metrics:        r.cfg.Metrics,
		errs:           r.errs,
	}

	// POST /contact - public mail relay, strict limit by IP
	r.Mux.Handle("POST /api/contact",
		httpx.Chain(h,
			r.limitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPages() {
	h := &PagesHandler{Files: r.files}

	r.Mux.Handle("GET "+r.cfg.LoginPath,
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			r.limitByIP(httpx.LenientLimit),
		),
	)

	for _, page := range ProtectedPages {
		r.Mux.Handle("GET /"+page,
			httpx.Chain(h.Page(page),
				r.sessions.RequirePage(r.cfg.LoginPath),
			),
		)
	}

	// Scripts load before the page's own auth check, so no session here.
	r.Mux.Handle("GET /js/{file...}",
		httpx.Chain(http.HandlerFunc(h.HandleScript),
			r.limitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.Handle("GET /private/{file...}",
		httpx.Chain(http.HandlerFunc(h.HandlePrivate),
			r.sessions.RequireAPI,
		),
	)

	if r.cfg.PublicDir != "" {
		r.Mux.Handle("GET /", http.FileServer(http.Dir(r.cfg.PublicDir)))
	}
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.cfg.BuildVersion),
			r.limitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.cfg.BuildVersion, r.db),
			r.limitByIP(httpx.LenientLimit),
		),
	)

	if r.cfg.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.cfg.Metrics.Handler())
	}
}
