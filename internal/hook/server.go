package hook

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/goplus/cargo-sdl-apk/internal/errs"
)

// Environment variables through which a wrapped compiler finds the Server.
const (
	EnvAddr  = "SDL_APK_HOOK"
	EnvToken = "SDL_APK_HOOK_TOKEN"
)

const (
	tokenHeader = "X-Hook-Token"
	execPath    = "/v1/exec"
)

// frame is one NDJSON record of an exec response. The last frame has Done set.
type frame struct {
	Stream string `json:"stream,omitempty"`
	Line   string `json:"line,omitempty"`
	Done   bool   `json:"done,omitempty"`
	Exit   int    `json:"exit,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Server hands commands posted by wrapper processes to an Executor. Build
// tools that spawn one compiler process per unit reach the Executor this way;
// each request is served on its own goroutine.
type Server struct {
	exec     Executor
	classify func(*Command) Unit
	token    string

	ln  net.Listener
	srv *http.Server

	mu       sync.Mutex
	firstErr error
}

// NewServer returns a Server that classifies commands with classify and runs
// them with exec.
func NewServer(exec Executor, classify func(*Command) Unit) *Server {
	return &Server{
		exec:     exec,
		classify: classify,
		token:    uuid.NewString(),
	}
}

// Start listens on a loopback port and serves until Close. Requests inherit ctx.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST(execPath, s.handleExec)

	s.ln = ln
	s.srv = &http.Server{
		Handler:     r,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("hook server: %v", err)
		}
	}()
	glog.V(1).Infof("Hook server listening on %s", ln.Addr())
	return nil
}

// Addr returns the listening address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Env returns the variables a wrapper process needs to reach s.
func (s *Server) Env() []string {
	return []string{EnvAddr + "=" + s.Addr(), EnvToken + "=" + s.token}
}

// Err returns the first error of a designated unit, if any.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

// Close stops accepting requests and waits for running ones.
func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstErr == nil {
		s.firstErr = err
	}
}

func (s *Server) handleExec(c *gin.Context) {
	if c.GetHeader(tokenHeader) != s.token {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	var cmd Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	unit := s.classify(&cmd)

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)

	var mu sync.Mutex
	enc := json.NewEncoder(c.Writer)
	send := func(f frame) error {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(f); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}
	err := s.exec.Exec(c.Request.Context(), &cmd, unit,
		func(line string) error { return send(frame{Stream: "stdout", Line: line}) },
		func(line string) error { return send(frame{Stream: "stderr", Line: line}) },
	)
	done := frame{Done: true}
	if err != nil {
		if unit.Designated() {
			s.fail(err)
		}
		done.Exit = errs.ExitCode(err)
		done.Error = err.Error()
	}
	if err := send(done); err != nil {
		glog.Warningf("hook: reply to %s: %v", cmd.Program, err)
	}
}
