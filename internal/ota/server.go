// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ota

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/guitar_controller/internal/telemetry"
)

// Request headers of the upload endpoint.
const (
	HeaderType     = "X-Update-Type"
	HeaderPassword = "X-Update-Password"
)

// Options configure the update server.
type Options struct {
	Hostname    string
	ListenAddr  string
	Password    string // empty disables authentication
	StagingPath string // directory receiving the uploaded image
	RebootDelay time.Duration
}

// Announcement is published retained on the ota topic when the server is up.
type Announcement struct {
	Hostname string    `json:"hostname"`
	Addr     string    `json:"addr"`
	Auth     bool      `json:"auth"`
	Time     time.Time `json:"time"`
}

// Server accepts one image upload on POST /update.
type Server struct {
	opts      Options
	cb        Callbacks
	announcer telemetry.Client
	topic     string

	listen func(network, addr string) (net.Listener, error)
	sleep  func(ctx context.Context, d time.Duration)

	mu       sync.Mutex // one upload at a time
	doneOnce sync.Once
	done     chan Command
}

// NewServer returns a server that reports through cb.
func NewServer(opts Options, cb Callbacks) *Server {
	return &Server{
		opts:   opts,
		cb:     cb,
		listen: net.Listen,
		sleep:  sleepCtx,
		done:   make(chan Command, 1),
	}
}

// Announce publishes the server's address on topic once it is listening.
func (s *Server) Announce(client telemetry.Client, topic string) {
	s.announcer = client
	s.topic = topic
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run serves uploads until an image is staged or ctx is done. It returns
// ErrReboot after a successful update, and also when the listener cannot be
// opened, after waiting the reboot delay.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.listen("tcp", s.opts.ListenAddr)
	if err != nil {
		s.cb.fail(&Error{Kind: ConnectError, Err: err})
		log.Printf("ota: connection failed, rebooting in %v", s.opts.RebootDelay)
		s.sleep(ctx, s.opts.RebootDelay)
		return fmt.Errorf("%w: %v", ErrReboot, err)
	}

	srv := &http.Server{Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Printf("ota: ready, %s listening on %s", s.opts.Hostname, ln.Addr())
	s.announce(ln.Addr().String())

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}

	select {
	case <-ctx.Done():
		shutdown()
		return nil
	case cmd := <-s.done:
		shutdown()
		log.Printf("ota: %s staged in %s", cmd, s.opts.StagingPath)
		return ErrReboot
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ota: serve: %w", err)
	}
}

func (s *Server) announce(addr string) {
	if s.announcer == nil {
		return
	}
	payload, err := json.Marshal(Announcement{
		Hostname: s.opts.Hostname,
		Addr:     addr,
		Auth:     s.opts.Password != "",
		Time:     time.Now(),
	})
	if err != nil {
		log.Printf("ota: announce marshal error: %v", err)
		return
	}
	if token := s.announcer.Publish(s.topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("ota: announce error: %v", token.Error())
	}
}

// Handler returns the HTTP handler of the upload endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/update", s.handleUpdate)
	return mux
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.opts.Password != "" {
		got := r.Header.Get(HeaderPassword)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.Password)) != 1 {
			s.cb.fail(&Error{Kind: AuthError})
			http.Error(w, "auth failed", http.StatusUnauthorized)
			return
		}
	}

	cmd, err := ParseCommand(r.Header.Get(HeaderType))
	if err != nil {
		s.cb.fail(&Error{Kind: BeginError, Err: err})
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.mu.TryLock() {
		http.Error(w, "update already in progress", http.StatusConflict)
		return
	}
	defer s.mu.Unlock()

	s.cb.start(cmd)
	if e := s.receive(cmd, r.Body, r.ContentLength); e != nil {
		s.cb.fail(e)
		status := http.StatusInternalServerError
		if e.Kind == ReceiveError {
			status = http.StatusBadRequest
		}
		http.Error(w, e.Error(), status)
		return
	}
	s.cb.end()

	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")

	s.doneOnce.Do(func() { s.done <- cmd })
}

// receive writes the body to a temporary file next to the target and renames
// it into place once complete.
func (s *Server) receive(cmd Command, body io.Reader, total int64) *Error {
	if err := os.MkdirAll(s.opts.StagingPath, 0o755); err != nil {
		return &Error{Kind: BeginError, Err: err}
	}
	tmp, err := os.CreateTemp(s.opts.StagingPath, ".upload-*")
	if err != nil {
		return &Error{Kind: BeginError, Err: err}
	}
	defer os.Remove(tmp.Name())

	pw := &progressWriter{w: tmp, total: total, cb: s.cb}
	n, err := io.Copy(pw, body)
	if err == nil && total > 0 && n != total {
		err = fmt.Errorf("got %d of %d bytes", n, total)
	}
	if err == nil && n == 0 {
		err = errors.New("empty image")
	}
	if err != nil {
		tmp.Close()
		return &Error{Kind: ReceiveError, Err: err}
	}

	if err := tmp.Close(); err != nil {
		return &Error{Kind: EndError, Err: err}
	}
	target := filepath.Join(s.opts.StagingPath, cmd.FileName())
	if err := os.Rename(tmp.Name(), target); err != nil {
		return &Error{Kind: EndError, Err: err}
	}
	return nil
}

type progressWriter struct {
	w     io.Writer
	done  int64
	total int64
	cb    Callbacks
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.done += int64(n)
	p.cb.progress(p.done, p.total)
	return n, err
}
