// Package stream serves composited frames to browsers as a multipart JPEG
// stream and collects mouse and keyboard input from them.
package stream

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"agent-compositor/internal/encode"
	"agent-compositor/internal/input"
	"agent-compositor/internal/logging"

	"github.com/gorilla/websocket"
)

// Boundary separates frames in the multipart stream.
const Boundary = "framebnd"

//go:embed index.html
var indexHTML []byte

// Server routes HTTP requests to the frame hub and the input queues.
type Server struct {
	hub      *Hub
	queues   input.Queues
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer wires the routes.
func NewServer(hub *Hub, queues input.Queues) *Server {
	s := &Server{
		hub:    hub,
		queues: queues,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // allow all origins
			},
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /mouse/move", s.handleMouseMove)
	s.mux.HandleFunc("POST /mouse/click", s.handleMouseClick)
	s.mux.HandleFunc("POST /key/update", s.handleKey)
	s.mux.HandleFunc("GET /state/update", s.handleStream)
	s.mux.HandleFunc("GET /snapshot.webp", s.handleSnapshot)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. Request contexts
// derive from ctx, so open streams end when ctx does.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logging.L().Info("listening", "url", "http://"+ln.Addr().String())

	select {
	case err := <-errc:
		return fmt.Errorf("stream: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stream: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stream: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func formInt(r *http.Request, key string) (int, error) {
	v, err := strconv.Atoi(r.FormValue(key))
	if err != nil {
		return 0, fmt.Errorf("bad %s: %q", key, r.FormValue(key))
	}
	return v, nil
}

func formBool(r *http.Request, key string) (bool, error) {
	switch r.FormValue(key) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	}
	return false, fmt.Errorf("bad %s: %q", key, r.FormValue(key))
}

func (s *Server) dispatch(w http.ResponseWriter, e input.Event) {
	if err := s.queues.Dispatch(e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMouseMove(w http.ResponseWriter, r *http.Request) {
	x, err := formInt(r, "x")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	y, err := formInt(r, "y")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.dispatch(w, input.Event{Kind: input.MouseMove, X: x, Y: y})
}

func (s *Server) handleMouseClick(w http.ResponseWriter, r *http.Request) {
	button, err := formInt(r, "button")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.dispatch(w, input.Event{Kind: input.MouseClick, Button: button})
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	e := input.Event{Kind: input.Key, Key: r.FormValue("Key")}
	var err error
	for key, dst := range map[string]*bool{"shiftKey": &e.Shift, "ctrlKey": &e.Ctrl, "altKey": &e.Alt} {
		if *dst, err = formBool(r, key); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	s.dispatch(w, e)
}

// handleStream writes every new frame as one part of a
// multipart/x-mixed-replace response until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, pre-check=0, post-check=0, max-age=0")
	h.Set("Connection", "close")
	h.Set("Content-Type", "multipart/x-mixed-replace;boundary="+Boundary)
	h.Set("Pragma", "no-cache")

	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(Boundary); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var seq uint64
	for {
		f, err := s.hub.Wait(r.Context(), seq)
		if err != nil {
			return
		}
		seq = f.Seq

		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":   {f.ContentType},
			"Content-Length": {strconv.Itoa(len(f.Data))},
		})
		if err == nil {
			_, err = part.Write(f.Data)
		}
		if err != nil {
			logging.L().Debug("stream client gone", "remote", r.RemoteAddr, "err", err)
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	f := s.hub.Latest()
	if f == nil || f.Image == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	data, err := encode.Encoder{Format: encode.WebP}.Bytes(f.Image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", encode.WebP.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

type wsReply struct {
	Error string `json:"error,omitempty"`
}

// handleWebSocket reads JSON input events until the connection closes.
// Invalid events are answered with an error message; valid ones are queued
// silently.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.L().Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	for {
		var e input.Event
		if err := conn.ReadJSON(&e); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.L().Debug("websocket read", "remote", r.RemoteAddr, "err", err)
			}
			return
		}
		if err := s.queues.Dispatch(e); err != nil {
			if werr := conn.WriteJSON(wsReply{Error: err.Error()}); werr != nil {
				return
			}
		}
	}
}
