package httpapi

import (
	"net/http"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/hub"
	"github.com/AaronC17/Projecto-Moviles-2/internal/lobby"
	"github.com/AaronC17/Projecto-Moviles-2/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Lobby    *lobby.Lobby
	Hub      *hub.Hub
	Recorder Recorder
	Logger   *zap.Logger
	JoinURL  string
	Origins  []string
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/qr", JoinQR(d.JoinURL))
	r.Get("/ws", ws.Handler(d.Lobby, d.Hub, ws.Options{Logger: log, OriginPatterns: d.Origins}))
	r.Post("/jugadas", SaveJugadas(d.Recorder, log))
	r.Post("/adivinanzas", SaveAdivinanza(d.Recorder, log))
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("took", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("remote", r.RemoteAddr))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
