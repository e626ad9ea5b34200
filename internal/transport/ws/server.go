package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"htrae.ai/internal/protocol"
	"htrae.ai/internal/sim/world"
)

type Options struct {
	// SessionQueue bounds each session's outbound frames.
	SessionQueue int
	// IdleTimeout closes a session that sends nothing for this long. Zero
	// disables it.
	IdleTimeout time.Duration
}

type Server struct {
	world *world.World
	log   *log.Logger
	opts  Options

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger, opts Options) *Server {
	if opts.SessionQueue <= 0 {
		opts.SessionQueue = 8
	}
	s := &Server{
		world: w,
		log:   logger,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		out := make(chan []byte, s.opts.SessionQueue)
		respCh := make(chan world.AttachResponse, 1)
		s.world.Attach() <- world.AttachRequest{Out: out, Resp: respCh}
		sessionID := (<-respCh).SessionID
		if s.log != nil {
			s.log.Printf("session %s attached from %s", sessionID, r.RemoteAddr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						// Unblock the reader.
						_ = conn.Close()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			if s.opts.IdleTimeout > 0 {
				_ = conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
			}
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			env := world.InboundEnvelope{SessionID: sessionID}
			in, code, err := protocol.DecodeInbound(msg)
			if err != nil {
				env.ErrCode, env.ErrMsg = code, err.Error()
			} else {
				env.Msg = in
			}
			s.world.Inbox() <- env
		}

		// Cleanup.
		s.world.Leave() <- sessionID
		if s.log != nil {
			s.log.Printf("session %s closed", sessionID)
		}
	}
}
