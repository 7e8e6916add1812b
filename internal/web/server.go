package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/usecase"
	"go.uber.org/zap"
)

type Server struct {
	router  *http.ServeMux
	server  *http.Server
	store   domain.SetupWriter
	service *usecase.SetupService
	worker  *usecase.ScanWorker
	logger  *zap.Logger
}

func NewServer(
	port int,
	store domain.SetupWriter,
	service *usecase.SetupService,
	worker *usecase.ScanWorker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		store:   store,
		service: service,
		worker:  worker,
		logger:  logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Setups
	s.router.HandleFunc("GET /api/setups", s.handleListSetups)
	s.router.HandleFunc("GET /api/latest", s.handleLatest)
	s.router.HandleFunc("POST /api/scan", s.handleScan)

	// Levels
	s.router.HandleFunc("GET /api/levels", s.handleListLevels)
	s.router.HandleFunc("POST /api/levels", s.handleAddLevel)
	s.router.HandleFunc("DELETE /api/levels/{id}", s.handleDeleteLevel)

	// Multi-timeframe
	s.router.HandleFunc("GET /api/mtf", s.handleListMTF)

	// Score calculator
	s.router.HandleFunc("GET /api/score", s.handleScore)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
