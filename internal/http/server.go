package http

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/BhavyaSri138/SE-ProfAid/internal/config"
	"github.com/BhavyaSri138/SE-ProfAid/internal/services"
	"github.com/BhavyaSri138/SE-ProfAid/internal/storage"
)

type Server struct {
	engine *echo.Echo
	cfg    config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	fm, err := storage.NewFileManager(cfg.DataDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("init file manager: %w", err)
	}

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	catalog, err := services.NewSubjectCatalog(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init subject catalog: %w", err)
	}

	tokens := services.NewTokenService(cfg)
	doubts := services.NewDoubtService(store, catalog)

	engine := echo.New()
	engine.HideBanner = true
	engine.HidePort = true
	engine.Use(middleware.Recover())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS())

	api := NewAPI(cfg, fm, doubts, catalog, tokens)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Start(addr)
}
