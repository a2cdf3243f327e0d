package api

import (
	"context"
	"net/http"
	"time"

	"passui/internal/api/handlers"
	"passui/internal/api/routes"
	"passui/internal/api/web"
	"passui/internal/config"
	"passui/internal/metrics"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine with every route. m may be nil when
// metrics are disabled.
func NewRouter(cfg *config.Config, changer handlers.Changer, logger zerolog.Logger, m *metrics.Metrics) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("passui"))
	router.Use(RequestLogger(logger))
	if m != nil {
		router.Use(m.Middleware())
	}
	router.Use(SecurityHeaders())
	router.MaxMultipartMemory = 1 << 20 // 1Mib
	initCookies(router, cfg.Server.SessionSecret)

	tmpl, err := web.Templates()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}
	router.SetHTMLTemplate(tmpl)

	static, err := web.Static()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open static assets")
	}
	router.StaticFS("/static", http.FS(static))

	routes.AddRoutes(router, handlers.New(changer, cfg.Html, logger), m)
	return router, nil
}

// Run serves router on the configured address until ctx is done, then shuts
// the server down gracefully.
func Run(ctx context.Context, cfg *config.Config, router http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Server.ListeningAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("address", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "failed to serve")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// initCookies use gin-contrib/sessions{/cookie} to initalize a cookie store.
// The session only carries the CSRF token.
func initCookies(router *gin.Engine, secret string) {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions("passui", store))
}
