package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/trinity-viewer/internal/engine/animation"
	"github.com/Faultbox/trinity-viewer/internal/engine/skeleton"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// checkOrigin accepts requests without an Origin header and origins listed
// in the server's CORS origins; "*" allows any origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.CORSOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// handleStream plays a clip over a websocket. The client sends text
// commands (play, pause, stop, seek <frame>); the server answers every
// command and every tick while playing with a pose message.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, err := s.loadModel(vars["path"])
	if err != nil {
		writeError(w, err)
		return
	}
	clip, err := s.clip(m, vars["clip"])
	if err != nil {
		writeError(w, err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var skel *skeleton.Skeleton
	if m.Skeleton != nil {
		skel = m.Skeleton.Clone()
	}
	sess := &session{
		conn:   conn,
		player: animation.NewPlayer(clip, skel),
		tick:   s.opts.TickInterval,
		log:    s.log.With(zap.String("model", m.Path), zap.String("clip", clip.Name)),
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	sess.run(ctx)
}

// session is one client's playback. The player and its skeleton copy are
// only touched by the run goroutine.
type session struct {
	conn   *websocket.Conn
	player *animation.Player
	tick   time.Duration
	log    *zap.Logger
}

func (s *session) run(ctx context.Context) {
	s.log.Debug("stream opened")
	defer s.log.Debug("stream closed")

	commands := make(chan string)
	go s.readPump(ctx, commands)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := s.send(); err != nil {
		return
	}
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return

		case cmd, ok := <-commands:
			if !ok {
				return
			}
			if err := s.command(cmd); err != nil {
				s.log.Debug("bad command", zap.String("command", cmd), zap.Error(err))
				if err := s.sendError(err); err != nil {
					return
				}
				continue
			}
			last = time.Now()
			if err := s.send(); err != nil {
				return
			}

		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			if s.player.State() != animation.Playing {
				continue
			}
			s.player.Update(float32(delta) / float32(time.Millisecond))
			if err := s.send(); err != nil {
				return
			}

		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readPump forwards text messages until the connection fails, then closes
// commands.
func (s *session) readPump(ctx context.Context, commands chan<- string) {
	defer close(commands)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("stream read failed", zap.Error(err))
			}
			return
		}
		select {
		case commands <- strings.TrimSpace(string(msg)):
		case <-ctx.Done():
			return
		}
	}
}

func (s *session) command(cmd string) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return errUnknownCommand(cmd)
	}
	switch fields[0] {
	case "play":
		s.player.Play()
	case "pause":
		s.player.Pause()
	case "stop":
		s.player.Stop()
	case "seek":
		if len(fields) != 2 {
			return errUnknownCommand(cmd)
		}
		f, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return errUnknownCommand(cmd)
		}
		s.player.Seek(float32(f))
	default:
		return errUnknownCommand(cmd)
	}
	return nil
}

func (s *session) send() error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(poseJSON(s.player))
}

func (s *session) sendError(err error) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(map[string]string{"error": err.Error()})
}

type errUnknownCommand string

func (e errUnknownCommand) Error() string {
	return "unknown command " + strconv.Quote(string(e))
}
