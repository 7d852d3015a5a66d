package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout  = 30 * time.Second
	defaultWriteTimeout = 30 * time.Second
	shutdownTimeout     = 30 * time.Second

	// inheritedEnv marks a child started by a SIGUSR2 restart.
	inheritedEnv = "HTMLFILTER_INHERITED_FD"
	// inheritedFD is the first fd after stdin, stdout and stderr.
	inheritedFD = 3
)

// Server is an http.Server that drains on SIGINT/SIGTERM and hands its
// listening socket to a fresh process on SIGUSR2.
type Server struct {
	*http.Server

	listener net.Listener
	signals  chan os.Signal
	done     chan struct{}
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       defaultReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      defaultWriteTimeout,
		},
		signals: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
}

// ListenAndServe serves until ctx is cancelled or a stop signal arrives.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	s.listener = ln

	signal.Notify(s.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	defer signal.Stop(s.signals)
	go s.watch(ctx)

	if err := s.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-s.done
	return nil
}

func (s *Server) listen() (net.Listener, error) {
	if os.Getenv(inheritedEnv) != "" {
		ln, err := net.FileListener(os.NewFile(inheritedFD, "listener"))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	addr := s.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (s *Server) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			Sugar.Info("context cancelled, shutting down HTTP server")
			s.shutdown()
			return
		case sig := <-s.signals:
			switch sig {
			case syscall.SIGUSR2:
				pid, err := s.fork()
				if err != nil {
					Sugar.Errorf("restart failed: %v, continue serving", err)
					continue
				}
				Sugar.Infof("started replacement process pid=%d, draining", pid)
			default:
				Sugar.Infof("received %s, shutting down HTTP server", sig)
			}
			s.shutdown()
			return
		}
	}
}

func (s *Server) shutdown() {
	defer close(s.done)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
		return
	}
	Sugar.Info("HTTP server stopped")
}

func (s *Server) fork() (int, error) {
	tcp, ok := s.listener.(*net.TCPListener)
	if !ok {
		return 0, errors.New("listener is not a TCP listener")
	}
	file, err := tcp.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer file.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if len(e) > len(inheritedEnv) && e[:len(inheritedEnv)+1] == inheritedEnv+"=" {
			continue
		}
		env = append(env, e)
	}
	env = append(env, inheritedEnv+"=1")

	pid, err := syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
	if err != nil {
		return 0, fmt.Errorf("forkexec: %w", err)
	}
	return pid, nil
}

// GraceServer serves handler on addr with graceful shutdown and restart.
func GraceServer(ctx context.Context, addr string, handler http.Handler) error {
	return NewServer(addr, handler).ListenAndServe(ctx)
}
