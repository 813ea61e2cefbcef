package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/swirl-rewards/internal/domain"
	"github.com/msomdec/swirl-rewards/internal/service"
	"github.com/msomdec/swirl-rewards/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// EventsHandler streams the client's balance and cart to the browser as
// Datastar patches.
type EventsHandler struct {
	sessions  *service.SessionRegistry
	votes     *service.VoteService
	keepAlive time.Duration
}

// NewEventsHandler creates a new EventsHandler. While a stream is open the
// session is marked as used every keepAlive so it is not evicted.
func NewEventsHandler(sessions *service.SessionRegistry, votes *service.VoteService, keepAlive time.Duration) *EventsHandler {
	return &EventsHandler{sessions: sessions, votes: votes, keepAlive: keepAlive}
}

// HandleEvents pushes the current state, then a fresh patch after every
// account or cart change, until the client disconnects.
// GET /api/events
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())

	// Subscribe before the first push so no change is missed in between.
	changed := make(chan struct{}, 1)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	stopAccount := s.Identity.Subscribe(func(*domain.Account) { notify() })
	defer stopAccount()
	stopCart := s.Loyalty.Subscribe(func([]domain.CartItem) { notify() })
	defer stopCart()

	sse := datastar.NewSSE(w, r)

	if err := h.pushFlavors(r.Context(), sse); err != nil {
		slog.Debug("push flavors", "session_id", s.ID, "error", err)
		return
	}
	if err := pushState(sse, s); err != nil {
		slog.Debug("push state", "session_id", s.ID, "error", err)
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.sessions.Touch(s.ID)
		case <-changed:
			if err := pushState(sse, s); err != nil {
				slog.Debug("push state", "session_id", s.ID, "error", err)
				return
			}
		}
	}
}

func (h *EventsHandler) pushFlavors(ctx context.Context, sse *datastar.ServerSentEventGenerator) error {
	flavors, err := h.votes.List(ctx)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(view.Flavors(flavors))
}

func pushState(sse *datastar.ServerSentEventGenerator, s *service.Session) error {
	account := s.Identity.Current()
	cart := s.Loyalty.Cart()

	if err := sse.PatchElementTempl(view.Balance(account)); err != nil {
		return err
	}
	if err := sse.PatchElementTempl(view.Cart(cart)); err != nil {
		return err
	}

	signals := struct {
		SignedIn  bool `json:"signedIn"`
		Points    int  `json:"points"`
		CartCount int  `json:"cartCount"`
		CartTotal int  `json:"cartTotal"`
	}{
		SignedIn:  account != nil,
		CartTotal: domain.CartTotal(cart),
	}
	if account != nil {
		signals.Points = account.Points
	}
	for _, item := range cart {
		signals.CartCount += item.Quantity
	}
	return sse.MarshalAndPatchSignals(signals)
}
