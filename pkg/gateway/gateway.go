// Package gateway binds websocket sessions to character entities. Inbound frames are decoded and
// queued into the world; outbound messages produced during the tick are written asynchronously.
package gateway

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/argus-labs/roseshard/pkg/character"
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/notify"
	"github.com/argus-labs/roseshard/pkg/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

var (
	// ErrNoSession is returned when sending to an entity without a live session.
	ErrNoSession = eris.New("no session bound to entity")
	// ErrSlowConsumer is returned when a session's outbound buffer is full.
	ErrSlowConsumer = eris.New("session outbound buffer is full")
)

const (
	outboundBuffer = 256
	writeTimeout   = 5 * time.Second
	saveTimeout    = 10 * time.Second
	maxFrameSize   = 4096
)

var _ notify.Sender = (*Gateway)(nil)

// Gateway serves the websocket endpoint and implements notify.Sender.
type Gateway struct {
	world    *engine.World
	loader   *character.Loader
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[ecs.Entity]*session
	closed   chan struct{}
	once     sync.Once
	saves    sync.WaitGroup
}

type session struct {
	id        string
	character uint32
	entity    ecs.Entity
	conn      *websocket.Conn
	out       chan []byte
}

// New creates a gateway for w.
func New(w *engine.World, loader *character.Loader, logger zerolog.Logger) *Gateway {
	return &Gateway{
		world:  w,
		loader: loader,
		logger: logger.With().Str("component", "gateway").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Authentication happens in front of the shard.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[ecs.Entity]*session),
		closed:   make(chan struct{}),
	}
}

// Handler returns the HTTP handler serving /ws.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.serveWS)
	return mux
}

// Send queues msg for the session bound to recipient. It never blocks.
func (g *Gateway) Send(recipient ecs.Entity, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.sessions[recipient]
	if !ok {
		return eris.Wrapf(ErrNoSession, "%s", recipient)
	}
	select {
	case s.out <- data:
		return nil
	default:
		return eris.Wrapf(ErrSlowConsumer, "session %s", s.id)
	}
}

// Sessions returns the number of bound sessions.
func (g *Gateway) Sessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	charID, err := strconv.ParseUint(r.URL.Query().Get("character"), 10, 32)
	if err != nil {
		http.Error(w, "invalid character id", http.StatusBadRequest)
		return
	}
	premium := false
	if raw := r.URL.Query().Get("premium"); raw != "" {
		if premium, err = strconv.ParseBool(raw); err != nil {
			http.Error(w, "invalid premium flag", http.StatusBadRequest)
			return
		}
	}

	rec, err := g.loader.Fetch(r.Context(), uint32(charID))
	if eris.Is(err, character.ErrNotFound) {
		http.Error(w, "unknown character", http.StatusNotFound)
		return
	}
	if err != nil {
		g.logger.Error().Err(err).Uint64("character", charID).Msg("failed to load character")
		http.Error(w, "failed to load character", http.StatusInternalServerError)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := &session{
		id:        uuid.NewString(),
		character: rec.ID,
		conn:      conn,
		out:       make(chan []byte, outboundBuffer),
	}
	if !g.spawn(s, rec, premium) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}

	log := g.logger.With().Str("session", s.id).Uint32("character", s.character).Logger()
	log.Info().Stringer("entity", s.entity).Msg("session opened")

	go g.writeLoop(s, log)
	g.readLoop(s, log)
	g.disconnect(s)
	log.Info().Msg("session closed")
}

// spawn materializes the character on the tick goroutine and binds the session to it. Returns false
// if the gateway closed before the session was bound. A bound session is always returned as such,
// so its character is saved and removed by disconnect.
func (g *Gateway) spawn(s *session, rec character.Record, premium bool) bool {
	spawned := make(chan struct{})
	g.world.Submit(func(w *engine.World) {
		defer close(spawned)
		if g.isClosed() {
			return
		}

		e := g.loader.Spawn(w, rec, premium)
		if err := ecs.Set(w.Store(), e, component.Client{Session: s.id}); err != nil {
			g.logger.Error().Err(err).Msg("failed to bind client")
		}

		// Close reads the sessions under the same lock, so a session is either seen by Close or
		// never bound.
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.isClosed() {
			g.loader.Despawn(w, e)
			return
		}
		s.entity = e
		g.sessions[e] = s
	})

	select {
	case <-spawned:
	case <-g.closed:
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !s.entity.IsNull()
}

func (g *Gateway) isClosed() bool {
	select {
	case <-g.closed:
		return true
	default:
		return false
	}
}

func (g *Gateway) readLoop(s *session, log zerolog.Logger) {
	s.conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("read failed")
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			log.Debug().Err(err).Msg("discarding malformed message")
			continue
		}
		g.world.Enqueue(s.entity, msg)
	}
}

func (g *Gateway) writeLoop(s *session, log zerolog.Logger) {
	for data := range s.out {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Msg("write failed")
			_ = s.conn.Close()
			// Drain so Send never sees a blocked channel before disconnect unbinds the session.
			for range s.out {
			}
			return
		}
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = s.conn.Close()
}

// disconnect unbinds the session, then saves and removes its character on the tick goroutine.
func (g *Gateway) disconnect(s *session) {
	g.mu.Lock()
	delete(g.sessions, s.entity)
	close(s.out)
	g.mu.Unlock()

	g.saves.Add(1)
	g.world.Submit(func(w *engine.World) {
		rec, err := g.loader.Snapshot(w, s.entity)
		g.loader.Despawn(w, s.entity)
		if err != nil {
			g.logger.Error().Err(err).Uint32("character", s.character).Msg("failed to snapshot character")
			g.saves.Done()
			return
		}
		go func() {
			defer g.saves.Done()
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			defer cancel()
			if err := g.loader.Store(ctx, rec); err != nil {
				g.logger.Error().Err(err).Uint32("character", s.character).Msg("failed to save character")
			}
		}()
	})
}

// Close stops accepting sessions and closes every open connection. Call Wait afterwards, while the
// world still ticks, to let the characters be saved.
func (g *Gateway) Close() {
	g.once.Do(func() { close(g.closed) })

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, s := range g.sessions {
		_ = s.conn.Close()
	}
}

// Wait blocks until every disconnected character is saved or ctx ends.
func (g *Gateway) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.saves.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "gave up waiting for character saves")
	}
}
