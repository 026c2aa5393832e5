package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The wire protocol carries its own authentication; browser origin is
	// not part of the trust model.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StartWebSocket starts an optional WebSocket listener. Each socket is
// adapted to the same line-framed handler as a TCP connection: one inbound
// text frame is one protocol line, one outbound line is one text frame.
func (s *Server) StartWebSocket() error {
	addr := s.cfg.WSAddr
	if addr == "" {
		return nil // websocket listener disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("websocket listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("websocket HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()

	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	s.handleConn(&wsStream{conn: conn}, r.RemoteAddr)
}

// wsStream adapts a websocket connection to the io.ReadWriteCloser shape
// the line handler expects. Reads append a newline after each message so
// one frame scans as one line; writes strip the trailing newline and send
// one text frame per line.
type wsStream struct {
	conn *websocket.Conn
	r    io.Reader
}

func (ws *wsStream) Read(p []byte) (int, error) {
	for {
		if ws.r == nil {
			_, r, err := ws.conn.NextReader()
			if err != nil {
				return 0, io.EOF
			}
			ws.r = io.MultiReader(r, strings.NewReader("\n"))
		}
		n, err := ws.r.Read(p)
		if err == io.EOF {
			ws.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (ws *wsStream) Write(p []byte) (int, error) {
	if err := ws.conn.WriteMessage(websocket.TextMessage, bytes.TrimSuffix(p, []byte("\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (ws *wsStream) Close() error {
	return ws.conn.Close()
}
