package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/AaronC17/Projecto-Moviles-2/internal/types"
	"go.uber.org/zap"
)

const (
	DefaultTurnTimeout = 5 * time.Minute
	archiveTimeout     = 10 * time.Second
)

type Msg interface{ isLobbyMsg() }

type Join struct {
	ClientID string
	Name     string
	Outbox   chan types.Outbound // owned by the lobby from here on
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type FromClient struct {
	ClientID string
	Move     types.MoveRequest
}

func (FromClient) isLobbyMsg() {}

type ForceSummary struct{ ClientID string }

func (ForceSummary) isLobbyMsg() {}

// GetWeights replies with the session economy, drawing it if needed.
type GetWeights struct {
	Reply chan engine.Weights
}

func (GetWeights) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type turnExpired struct {
	gen      uint64
	playerID string
}

func (turnExpired) isLobbyMsg() {}

type View struct {
	InProgress   bool
	NumClients   int
	TurnIndex    int
	Holder       string
	Balance      engine.Balance
	MovesPlayed  int
	ObjectsTotal int
	Moves        []engine.Move
	Roster       []engine.Player
	Teammates    map[string]string
	HasWeights   bool
}

// SummarySink receives every finished session. Calls run off the lobby goroutine.
type SummarySink interface {
	RecordSummary(ctx context.Context, summary engine.Summary) error
}

type Options struct {
	Rules          engine.Rules
	TurnTimeout    time.Duration
	Logger         *zap.Logger
	Sinks          []SummarySink
	SessionOptions []engine.Option
}

type client struct {
	name   string
	outbox chan types.Outbound
	closed bool
}

type Lobby struct {
	inbox       chan Msg
	session     *engine.Session
	clients     map[string]*client
	sinks       []SummarySink
	turnTimeout time.Duration
	timer       *time.Timer
	timerGen    uint64
	log         *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewLobby(parent context.Context, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	if opts.Rules.Threshold <= 0 {
		opts.Rules = engine.DefaultRules()
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = DefaultTurnTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	l := &Lobby{
		inbox:       make(chan Msg, 64),
		session:     engine.NewSession(opts.Rules, opts.SessionOptions...),
		clients:     make(map[string]*client),
		sinks:       opts.Sinks,
		turnTimeout: opts.TurnTimeout,
		log:         opts.Logger.Named("lobby"),
		ctx:         ctx,
		cancel:      cancel,
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.handleJoin(msg)

			case Leave:
				l.handleLeave(msg.ClientID)

			case FromClient:
				l.handleMove(msg)

			case ForceSummary:
				if l.session.RosterSize() == 0 {
					break
				}
				l.log.Info("summary forced", zap.String("client", msg.ClientID))
				l.apply(l.session.ForceFinish())

			case turnExpired:
				if msg.gen != l.timerGen {
					break // stale timer
				}
				l.timer = nil
				l.log.Info("turn expired", zap.String("client", msg.playerID))
				l.apply(l.session.Timeout(msg.playerID))

			case GetWeights:
				msg.Reply <- l.session.Weights()

			case GetState:
				// test-only: reflect internal state without data races
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}

			if !l.session.InProgress() {
				l.disarm()
			}
		}
	}
}

func (l *Lobby) handleJoin(msg Join) {
	events, err := l.session.Join(msg.ClientID, msg.Name)
	if err != nil {
		l.log.Info("join rejected",
			zap.String("client", msg.ClientID),
			zap.String("player", msg.Name),
			zap.Error(err))
		reject(msg.Outbox, types.NewRejection(err))
		return
	}

	l.clients[msg.ClientID] = &client{name: msg.Name, outbox: msg.Outbox}
	l.log.Info("player joined",
		zap.String("client", msg.ClientID),
		zap.String("player", msg.Name),
		zap.Int("roster", l.session.RosterSize()))
	l.apply(events)
}

func (l *Lobby) handleLeave(clientID string) {
	c, ok := l.clients[clientID]
	if !ok {
		return
	}
	delete(l.clients, clientID)
	if !c.closed {
		close(c.outbox)
	}
	l.log.Info("player left", zap.String("client", clientID), zap.String("player", c.name))
	l.apply(l.session.Leave(clientID))
}

func (l *Lobby) handleMove(msg FromClient) {
	if _, ok := l.clients[msg.ClientID]; !ok {
		return
	}
	events, err := l.session.Place(msg.ClientID, msg.Move.ID, engine.Color(msg.Move.Color), engine.Side(msg.Move.Lado))
	switch {
	case errors.Is(err, engine.ErrOutOfTurn), errors.Is(err, engine.ErrSessionIdle):
		l.log.Debug("move ignored", zap.String("client", msg.ClientID), zap.Error(err))
		return
	case err != nil:
		l.log.Info("move rejected", zap.String("client", msg.ClientID), zap.Error(err))
		l.send(msg.ClientID, types.NewRejection(err))
		return
	}
	l.apply(events)
}

// apply turns engine events into wire messages, in order.
func (l *Lobby) apply(events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtRosterChanged:
			l.broadcast(types.NewRoster(ev.Count))

		case engine.EvtInventoryDealt:
			l.send(ev.PlayerID, types.NewBlocks(ev.Objects))

		case engine.EvtTeamAssigned:
			l.send(ev.PlayerID, types.NewTeam(ev.Partner))

		case engine.EvtHintRevealed:
			l.broadcast(types.NewHint(ev.Text))

		case engine.EvtTurnStarted:
			for id := range l.clients {
				l.send(id, types.NewTurn(id == ev.PlayerID, ev.Player))
			}
			l.arm(ev.PlayerID)

		case engine.EvtBalanceUpdated:
			l.broadcast(types.NewBalance(ev.Left, ev.Right, ev.Player, ev.Object, ev.Side))

		case engine.EvtNotice:
			l.broadcast(types.NewNotice(ev.Text))

		case engine.EvtPlayerEliminated:
			l.log.Info("player eliminated",
				zap.String("client", ev.PlayerID),
				zap.String("player", ev.Player),
				zap.String("reason", string(ev.Reason)))

		case engine.EvtSessionFinished:
			l.disarm()
			l.broadcast(types.NewSummary(ev.Summary))
			l.closeAll()
			l.archive(*ev.Summary)
			l.log.Info("session finished",
				zap.Int("moves", len(ev.Summary.Moves)),
				zap.Strings("survivors", ev.Summary.Survivors),
				zap.String("winner", string(ev.Summary.Winner)))
		}
	}
}

// arm starts the inactivity timer for a fresh turn; any previous timer is void.
func (l *Lobby) arm(playerID string) {
	l.disarm()
	gen := l.timerGen
	l.timer = time.AfterFunc(l.turnTimeout, func() {
		select {
		case l.inbox <- turnExpired{gen: gen, playerID: playerID}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) disarm() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.timerGen++
}

func (l *Lobby) broadcast(m types.Outbound) {
	for id := range l.clients {
		l.send(id, m)
	}
}

func (l *Lobby) send(clientID string, m types.Outbound) {
	c, ok := l.clients[clientID]
	if !ok || c.closed {
		return
	}
	select {
	case c.outbox <- m:
		// ok
	default:
		// Client is slow/full - cut it off; its reader will report the Leave.
		l.log.Warn("dropping slow client", zap.String("client", clientID), zap.String("player", c.name))
		close(c.outbox)
		c.closed = true
	}
}

func (l *Lobby) closeAll() {
	for id, c := range l.clients {
		if !c.closed {
			close(c.outbox)
		}
		delete(l.clients, id)
	}
}

func (l *Lobby) archive(summary engine.Summary) {
	for _, sink := range l.sinks {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			if err := sink.RecordSummary(ctx, summary); err != nil {
				l.log.Error("archive summary", zap.Error(err))
			}
		}()
	}
}

func (l *Lobby) view() View {
	v := View{
		InProgress:   l.session.InProgress(),
		NumClients:   len(l.clients),
		TurnIndex:    l.session.TurnIndex(),
		Balance:      l.session.Balance(),
		MovesPlayed:  l.session.MovesPlayed(),
		ObjectsTotal: l.session.ObjectsTotal(),
		Moves:        l.session.Moves(),
		Roster:       l.session.Roster(),
		Teammates:    make(map[string]string),
		HasWeights:   l.session.HasWeights(),
	}
	if h, ok := l.session.Holder(); ok {
		v.Holder = h.ID
	}
	for _, p := range v.Roster {
		if mate := l.session.Teammate(p.ID); mate != "" {
			v.Teammates[p.ID] = mate
		}
	}
	return v
}

func (l *Lobby) shutdown() {
	l.disarm()
	l.closeAll()
	l.cancel()
}

// reject answers a refused join on its own outbox and closes it.
func reject(outbox chan types.Outbound, m types.ErrorMessage) {
	select {
	case outbox <- m:
	default:
	}
	close(outbox)
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }
