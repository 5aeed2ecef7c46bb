// Package session runs one editing session per websocket connection. A
// session owns an editor.Controller and is its only writer: every inbound
// message, autosave tick and save completion is handled on the session's
// own goroutine.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/cardstudio/cardstudio/internal/editor"
	"github.com/cardstudio/cardstudio/internal/protocol"
)

var (
	ErrClosed = errors.New("session closed")
)

// DefaultSaveTimeout bounds a single store call.
const DefaultSaveTimeout = 10 * time.Second

// Storage is the card store a session reads its design from and saves to.
type Storage interface {
	editor.Store
	Load(ctx context.Context, id string) ([]byte, error)
}

// Sender delivers outbound messages. It must not block.
type Sender interface {
	Send(msg *protocol.Message)
}

// Options configures a Session. Zero values select the editor defaults.
type Options struct {
	GridSize     float64
	HistoryLimit int
	Autosave     time.Duration
	SaveTimeout  time.Duration
	Logger       *slog.Logger
	NewID        func(prefix string) string
}

type saveResult struct {
	req editor.SaveRequest
	id  string
	err error
}

type Session struct {
	ID     string
	UserID string

	store       editor.Store
	out         Sender
	ctrl        *editor.Controller
	saver       *editor.AutoSaver
	log         *slog.Logger
	saveTimeout time.Duration

	in    chan protocol.Message
	saved chan saveResult
	done  chan struct{}

	// cardID is the card the session was opened on. After Run starts only
	// the controller's id is authoritative.
	cardID string
	// bind is called when the first save creates a card.
	bind func(cardID string) error

	saving  int
	pending bool
}

func New(id, userID string, store editor.Store, out Sender, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session", id, "user", userID)
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	return &Session{
		ID:     id,
		UserID: userID,
		store:  store,
		out:    out,
		ctrl: editor.New(editor.Options{
			GridSize:     opts.GridSize,
			HistoryLimit: opts.HistoryLimit,
			Logger:       log,
			NewID:        opts.NewID,
		}),
		saver:       editor.NewAutoSaver(opts.Autosave, log),
		log:         log,
		saveTimeout: opts.SaveTimeout,
		in:          make(chan protocol.Message, 64),
		saved:       make(chan saveResult, 1),
		done:        make(chan struct{}),
	}
}

// Open binds the session to an existing card and loads its design. A
// design that fails to decode is replaced by an empty one; the client sees
// why in the state's loadError. Open must be called before Run.
func (s *Session) Open(cardID string, data []byte) {
	if err := s.ctrl.Load(data); err != nil {
		s.log.Warn("stored design unreadable", "card", cardID, "error", err)
	}
	s.ctrl.SetCardID(cardID)
	s.cardID = cardID
}

// CardID is the card the session was opened on, empty for a new card.
func (s *Session) CardID() string { return s.cardID }

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Deliver queues msg for the session loop.
func (s *Session) Deliver(ctx context.Context, msg protocol.Message) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.in <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run is the session loop. It returns when ctx is cancelled, after the
// committed design has been flushed to the store.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.saver.Interval)
	defer ticker.Stop()

	s.emit(protocol.TypeWelcome, 0, protocol.WelcomePayload{SessionID: s.ID, CardID: s.ctrl.CardID()})
	s.pushState(0)

	for {
		select {
		case <-ctx.Done():
			s.flush()
			return
		case msg := <-s.in:
			if err := s.handle(ctx, msg); err != nil {
				s.log.Debug("message rejected", "type", msg.Type, "error", err)
				s.emit(protocol.TypeError, msg.Seq, protocol.ErrorPayload{Error: err.Error(), Request: msg.Type})
			}
			s.pushState(msg.Seq)
		case res := <-s.saved:
			s.finishSave(ctx, res)
		case <-ticker.C:
			if s.ctrl.Dirty() {
				s.startSave(ctx, false)
			}
		}
	}
}

// startSave begins an asynchronous save of the committed design. Only one
// save runs at a time; a manual save asked for meanwhile runs when the
// current one finishes, an autosave tick is dropped.
func (s *Session) startSave(ctx context.Context, manual bool) {
	if s.saving > 0 {
		if manual {
			s.pending = true
		}
		return
	}
	req, err := s.ctrl.PrepareSave()
	if err != nil {
		s.emit(protocol.TypeSaveError, 0, protocol.ErrorPayload{Error: err.Error(), Request: protocol.TypeSave})
		return
	}

	var id string
	started := s.saver.Start(context.WithoutCancel(ctx), func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
		defer cancel()
		var err error
		id, err = editor.Perform(ctx, s.store, req)
		return err
	}, func(err error) {
		s.saved <- saveResult{req: req, id: id, err: err}
	})
	if started {
		s.saving++
	}
}

func (s *Session) finishSave(ctx context.Context, res saveResult) {
	s.saving--
	hadID := s.ctrl.CardID() != ""
	s.ctrl.FinishSave(res.req, res.id, res.err)

	if res.err != nil {
		s.emit(protocol.TypeSaveError, 0, protocol.ErrorPayload{Error: res.err.Error(), Request: protocol.TypeSave})
	} else {
		if !hadID {
			// A create that lands after a reload still made the card.
			if s.ctrl.CardID() == "" {
				s.ctrl.SetCardID(res.id)
			}
			if s.bind != nil {
				if err := s.bind(res.id); err != nil {
					s.log.Warn("bind new card", "card", res.id, "error", err)
				}
			}
		}
		s.emit(protocol.TypeSaveOK, 0, protocol.SaveOKPayload{CardID: s.ctrl.CardID()})
	}
	s.pushState(0)

	if s.pending {
		s.pending = false
		s.startSave(ctx, true)
	}
}

// flush waits for a save in flight and then writes anything still unsaved.
func (s *Session) flush() {
	ctx := context.Background()
	for s.saving > 0 {
		select {
		case res := <-s.saved:
			s.finishSave(ctx, res)
		case <-time.After(s.saveTimeout):
			s.log.Error("save still running at close, giving up")
			return
		}
	}
	if !s.ctrl.Dirty() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()
	if err := s.ctrl.Save(ctx, s.store); err != nil {
		s.log.Error("final save failed", "card", s.ctrl.CardID(), "error", err)
		return
	}
	s.log.Info("session flushed", "card", s.ctrl.CardID())
}

func (s *Session) pushState(seq int64) {
	s.emit(protocol.TypeState, seq, s.ctrl.View())
}

func (s *Session) emit(typ string, seq int64, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error("marshal payload", "type", typ, "error", err)
		return
	}
	s.out.Send(&protocol.Message{Type: typ, Seq: seq, Payload: data})
}

func (s *Session) handle(ctx context.Context, msg protocol.Message) error {
	save, err := protocol.Apply(s.ctrl, msg)
	if save {
		s.startSave(ctx, true)
	}
	return err
}
