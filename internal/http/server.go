package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
)

type Server struct {
	Engine *gin.Engine

	srv *stdhttp.Server
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

func (s *Server) Run(address string) error {
	s.srv = &stdhttp.Server{Addr: address, Handler: s.Engine}
	if err := s.srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
