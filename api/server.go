package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bdia-labs/gaia-bench/internal/bench"
	"github.com/bdia-labs/gaia-bench/internal/config"
	"github.com/bdia-labs/gaia-bench/internal/store"
)

// AskRunner submits benchmark attempts to a model and records the graded
// outcome. *bench.Runner implements it.
type AskRunner interface {
	Ask(ctx context.Context, req *bench.AskRequest) (*bench.AskResult, error)
	AskWithSteps(ctx context.Context, req *bench.AskRequest) (*bench.AskResult, error)
}

// FileURLSigner mints short-lived download links for stored attachments.
// *objstore.Client implements it.
type FileURLSigner interface {
	PresignedGetURL(ctx context.Context, objectURL string, expiry time.Duration) (string, error)
}

type Server struct {
	router *gin.Engine
	store  store.Store
	runner AskRunner
	files  FileURLSigner
	config *config.Config
	log    *zap.Logger
}

// NewServer wires the HTTP API over the question store and the benchmark
// runner. files may be nil when no object store is configured; attachment
// endpoints then degrade instead of failing at startup.
func NewServer(cfg *config.Config, st store.Store, runner AskRunner, files FileURLSigner, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		router: gin.New(),
		store:  st,
		runner: runner,
		files:  files,
		config: cfg,
		log:    log,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	s.registerStatic()
	return s, nil
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	if addr = strings.TrimSpace(addr); addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
