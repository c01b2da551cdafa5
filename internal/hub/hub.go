package hub

import (
	"context"
	"errors"

	"github.com/AaronC17/Projecto-Moviles-2/internal/engine"
	"github.com/AaronC17/Projecto-Moviles-2/internal/lobby"
	"github.com/AaronC17/Projecto-Moviles-2/internal/types"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

// PracticeJoin opens or resumes the practice run stored under Name.
type PracticeJoin struct {
	ClientID string
	Name     string
	Outbox   chan types.Outbound // owned by the hub from here on
}

type PracticeMove struct {
	ClientID string
	Move     types.MoveRequest
}

type PracticeLeave struct {
	ClientID string
}

// GetPractice reports the stored run for Name, if any.
type GetPractice struct {
	Name  string
	Reply chan PracticeView
}

type ShutdownHub struct{}

func (PracticeJoin) isHubMsg()  {}
func (PracticeMove) isHubMsg()  {}
func (PracticeLeave) isHubMsg() {}
func (GetPractice) isHubMsg()   {}
func (ShutdownHub) isHubMsg()   {}

type PracticeView struct {
	Exists    bool
	Connected bool
	Balance   engine.Balance
	Moves     []engine.Move
	Remaining int
}

type Options struct {
	Logger *zap.Logger
	NewID  func() string
}

type conn struct {
	name   string
	outbox chan types.Outbound
	closed bool
}

type record struct {
	practice *engine.Practice
	clientID string // "" while nobody is attached
}

// Hub owns every practice run. Runs are keyed by display name so a player can
// drop and resume until the tenth move.
type Hub struct {
	inbox     chan HubMsg
	lobby     *lobby.Lobby
	practices map[string]*record
	conns     map[string]*conn
	newID     func() string
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewHub(parent context.Context, lb *lobby.Lobby, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:     make(chan HubMsg, 64),
		lobby:     lb,
		practices: make(map[string]*record),
		conns:     make(map[string]*conn),
		newID:     opts.NewID,
		log:       opts.Logger.Named("practice"),
		ctx:       ctx,
		cancel:    cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case PracticeJoin:
				h.handleJoin(msg)

			case PracticeMove:
				h.handleMove(msg)

			case PracticeLeave:
				h.detach(msg.ClientID)

			case GetPractice:
				msg.Reply <- h.view(msg.Name)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) handleJoin(msg PracticeJoin) {
	rec := h.practices[msg.Name]
	if rec != nil && rec.clientID != "" {
		h.log.Info("practice join rejected", zap.String("client", msg.ClientID), zap.String("player", msg.Name))
		select {
		case msg.Outbox <- types.NewRejection(engine.ErrDuplicateIdentity):
		default:
		}
		close(msg.Outbox)
		return
	}

	resumed := rec != nil
	if !resumed {
		w, err := h.weights()
		if err != nil {
			h.log.Warn("practice weights unavailable", zap.Error(err))
			close(msg.Outbox)
			return
		}
		rec = &record{practice: engine.NewPractice(msg.Name, w, h.newID)}
		h.practices[msg.Name] = rec
	}
	rec.clientID = msg.ClientID
	h.conns[msg.ClientID] = &conn{name: msg.Name, outbox: msg.Outbox}

	h.log.Info("practice joined",
		zap.String("client", msg.ClientID),
		zap.String("player", msg.Name),
		zap.Bool("resumed", resumed))

	p := rec.practice
	h.send(msg.ClientID, types.NewBlocks(p.Remaining()))
	if resumed {
		b := p.Balance()
		h.send(msg.ClientID, types.NewBalance(b.Left, b.Right, "", nil, ""))
	}
	h.send(msg.ClientID, types.NewTurn(true, msg.Name))
}

func (h *Hub) handleMove(msg PracticeMove) {
	c, ok := h.conns[msg.ClientID]
	if !ok {
		return
	}
	rec := h.practices[c.name]
	if rec == nil {
		return
	}

	move, summary, err := rec.practice.Place(msg.Move.ID, engine.Color(msg.Move.Color), engine.Side(msg.Move.Lado))
	if err != nil {
		if !errors.Is(err, engine.ErrPracticeFinished) {
			h.log.Debug("practice move rejected", zap.String("client", msg.ClientID), zap.Error(err))
		}
		h.send(msg.ClientID, types.NewRejection(err))
		return
	}

	b := rec.practice.Balance()
	obj := engine.Object{ID: move.ObjectID, Color: move.Color, Weight: move.Weight}
	h.send(msg.ClientID, types.NewBalance(b.Left, b.Right, c.name, &obj, move.Side))

	if summary == nil {
		h.send(msg.ClientID, types.NewTurn(true, c.name))
		return
	}

	h.send(msg.ClientID, types.NewSummary(summary))
	h.log.Info("practice finished",
		zap.String("player", c.name),
		zap.String("winner", string(summary.Winner)))
	delete(h.practices, c.name)
	h.detach(msg.ClientID)
}

// detach forgets a connection. An unfinished run stays stored for a later resume.
func (h *Hub) detach(clientID string) {
	c, ok := h.conns[clientID]
	if !ok {
		return
	}
	delete(h.conns, clientID)
	if !c.closed {
		close(c.outbox)
	}
	if rec := h.practices[c.name]; rec != nil && rec.clientID == clientID {
		rec.clientID = ""
	}
}

func (h *Hub) send(clientID string, m types.Outbound) {
	c, ok := h.conns[clientID]
	if !ok || c.closed {
		return
	}
	select {
	case c.outbox <- m:
	default:
		h.log.Warn("dropping slow practice client", zap.String("client", clientID))
		close(c.outbox)
		c.closed = true
	}
}

// weights borrows the shared economy from the lobby, which draws one if needed.
func (h *Hub) weights() (engine.Weights, error) {
	reply := make(chan engine.Weights, 1)
	select {
	case h.lobby.Inbox() <- lobby.GetWeights{Reply: reply}:
	case <-h.ctx.Done():
		return nil, h.ctx.Err()
	}
	select {
	case w := <-reply:
		return w, nil
	case <-h.ctx.Done():
		return nil, h.ctx.Err()
	}
}

func (h *Hub) view(name string) PracticeView {
	rec := h.practices[name]
	if rec == nil {
		return PracticeView{}
	}
	return PracticeView{
		Exists:    true,
		Connected: rec.clientID != "",
		Balance:   rec.practice.Balance(),
		Moves:     rec.practice.Moves(),
		Remaining: len(rec.practice.Remaining()),
	}
}

func (h *Hub) shutdown() {
	for id := range h.conns {
		h.detach(id)
	}
	clear(h.practices)
	h.cancel()
}
