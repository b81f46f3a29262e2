// Package server serves memos as the paged JSON files the remote client
// reads: /data/memos/info.json and /data/memos/{n}.json.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/miosa/osa-memos/client"
	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/memo"
	"github.com/miosa/osa-memos/source"
)

const (
	infoFile        = "info.json"
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	memos    []memo.Memo
	pageSize int
	log      logrus.FieldLogger
	engine   *gin.Engine
}

// New builds the router. mode is a gin mode: release, debug or test.
func New(memos []memo.Memo, pageSize int, mode string, log logrus.FieldLogger) *Server {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if log == nil {
		log = logger.Discard()
	}

	s := &Server{memos: memos, pageSize: pageSize, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))

	r.GET("/health", s.health)
	r.GET("/data/memos/:file", s.file)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// -- Handlers -----------------------------------------------------------------

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, client.HealthResponse{Status: "ok", Count: len(s.memos)})
}

func (s *Server) file(c *gin.Context) {
	name := c.Param("file")
	memos := source.Filter(s.memos, c.Query("tag"))

	if name == infoFile {
		c.JSON(http.StatusOK, client.NewInfo(len(memos), s.pageSize))
		return
	}

	raw, ok := strings.CutSuffix(name, ".json")
	n, err := strconv.Atoi(raw)
	if !ok || err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, client.ErrorResponse{Error: "invalid page", Details: name})
		return
	}

	start := n * s.pageSize
	if start >= len(memos) && !(n == 0 && len(memos) == 0) {
		requestLogger(c, s.log).WithField("page", n).Debug("page out of range")
		c.JSON(http.StatusNotFound, client.ErrorResponse{Error: "page not found", Details: name})
		return
	}
	end := min(start+s.pageSize, len(memos))
	c.JSON(http.StatusOK, client.Page(memos[start:end]))
}
