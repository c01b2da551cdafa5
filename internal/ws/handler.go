package ws

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/AaronC17/Projecto-Moviles-2/internal/hub"
	"github.com/AaronC17/Projecto-Moviles-2/internal/lobby"
	"github.com/AaronC17/Projecto-Moviles-2/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	outboxSize   = 32
	writeTimeout = 3 * time.Second

	// frameLimit is the largest frame worth decoding. Bigger ones are dropped
	// like any other malformed frame; only hardReadLimit ends the connection.
	frameLimit    = 4096
	hardReadLimit = 1 << 20
)

type Options struct {
	Logger         *zap.Logger
	OriginPatterns []string
}

// route is where a connection's messages go once it has joined.
type route int

const (
	routeNone route = iota
	routeLobby
	routePractice
)

func Handler(lb *lobby.Lobby, h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(hardReadLimit)

		ctx := r.Context()
		clientID := uuid.NewString()
		clog := log.With(zap.String("client", clientID))
		out := make(chan types.Outbound, outboxSize)

		// Writer goroutine. It exits once the owner of out closes it, and closing
		// the socket then ends the reader below.
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for m := range out {
				payload, err := types.Encode(m)
				if err != nil {
					clog.Error("encode", zap.String("type", m.MessageType()), zap.Error(err))
					continue
				}
				wctx, cancel := context.WithTimeout(ctx, writeTimeout)
				err = conn.Write(wctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					clog.Debug("write failed", zap.Error(err))
					break
				}
			}
			conn.Close(websocket.StatusNormalClosure, "fin")
		}()

		var joined route
		defer func() {
			switch joined {
			case routeLobby:
				post(ctx, lb.Inbox(), lobby.Msg(lobby.Leave{ClientID: clientID}))
			case routePractice:
				post(ctx, h.Inbox(), hub.HubMsg(hub.PracticeLeave{ClientID: clientID}))
			default:
				close(out)
			}
			select {
			case <-writerDone:
			case <-ctx.Done():
			}
		}()

		// Reader loop
		for {
			data, oversized, err := readFrame(ctx, conn)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if !errors.Is(err, context.Canceled) {
						clog.Debug("read ended", zap.Error(err))
					}
				}
				return
			}
			if oversized {
				clog.Warn("dropping oversized message", zap.Int("limit", frameLimit), zap.ByteString("raw", truncate(data)))
				continue
			}

			msg, err := types.Decode(data)
			if err != nil {
				clog.Warn("dropping malformed message", zap.Error(err), zap.ByteString("raw", truncate(data)))
				continue
			}

			switch m := msg.(type) {
			case types.JoinRequest:
				if joined != routeNone {
					clog.Debug("repeated join ignored", zap.String("player", m.Jugador))
					continue
				}
				if m.Mode() == engine.ModePractice {
					joined = routePractice
					post(ctx, h.Inbox(), hub.HubMsg(hub.PracticeJoin{ClientID: clientID, Name: m.Jugador, Outbox: out}))
				} else {
					joined = routeLobby
					post(ctx, lb.Inbox(), lobby.Msg(lobby.Join{ClientID: clientID, Name: m.Jugador, Outbox: out}))
				}

			case types.MoveRequest:
				switch joined {
				case routeLobby:
					post(ctx, lb.Inbox(), lobby.Msg(lobby.FromClient{ClientID: clientID, Move: m}))
				case routePractice:
					post(ctx, h.Inbox(), hub.HubMsg(hub.PracticeMove{ClientID: clientID, Move: m}))
				default:
					clog.Debug("move before join ignored")
				}

			case types.ForceSummaryRequest:
				post(ctx, lb.Inbox(), lobby.Msg(lobby.ForceSummary{ClientID: clientID}))
			}
		}
	}
}

// post hands m to an actor unless the request is already gone.
// readFrame reads one whole message but keeps at most frameLimit bytes of it.
func readFrame(ctx context.Context, conn *websocket.Conn) ([]byte, bool, error) {
	_, r, err := conn.Reader(ctx)
	if err != nil {
		return nil, false, err
	}
	data, err := io.ReadAll(io.LimitReader(r, frameLimit+1))
	if err != nil {
		return nil, false, err
	}
	if len(data) <= frameLimit {
		return data, false, nil
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func post[M any](ctx context.Context, inbox chan<- M, m M) {
	select {
	case inbox <- m:
	case <-ctx.Done():
	}
}

func truncate(b []byte) []byte {
	const limit = 256
	if len(b) > limit {
		return b[:limit]
	}
	return b
}
