package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/revisehub/revisehub/internal/auth"
	"github.com/revisehub/revisehub/internal/classroom"
	"github.com/revisehub/revisehub/internal/quiz"
)

const feedBuffer = 16

// FeedEvent is one answer notification pushed to class subscribers.
type FeedEvent struct {
	ClassID    string    `json:"class_id"`
	LearnerID  string    `json:"learner_id"`
	ItemID     string    `json:"item_id"`
	Correct    bool      `json:"correct"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Feed fans answer events out to websocket subscribers per class. It
// implements quiz.EventSink; delivery is best-effort and slow
// subscribers drop events rather than block the quiz flow.
type Feed struct {
	classes classroom.Store

	mu   sync.Mutex
	subs map[string]map[chan FeedEvent]bool
}

// NewFeed creates a live class feed over the given class store.
func NewFeed(classes classroom.Store) *Feed {
	return &Feed{
		classes: classes,
		subs:    make(map[string]map[chan FeedEvent]bool),
	}
}

// AnswerRecorded routes an answer event to the feeds of every class the
// learner belongs to.
func (f *Feed) AnswerRecorded(learnerID string, evt quiz.AnswerEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		classes, err := f.classes.ListByStudent(ctx, learnerID)
		if err != nil {
			slog.Warn("feed class lookup failed", "learner_id", learnerID, "error", err)
			return
		}
		for _, c := range classes {
			f.broadcast(c.ID, FeedEvent{
				ClassID:    c.ID,
				LearnerID:  learnerID,
				ItemID:     evt.ItemID,
				Correct:    evt.Correct,
				Confidence: evt.Confidence,
				Timestamp:  evt.CreatedAt,
			})
		}
	}()
}

func (f *Feed) broadcast(classID string, evt FeedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[classID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (f *Feed) subscribe(classID string) chan FeedEvent {
	ch := make(chan FeedEvent, feedBuffer)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[classID] == nil {
		f.subs[classID] = make(map[chan FeedEvent]bool)
	}
	f.subs[classID][ch] = true
	return ch
}

func (f *Feed) unsubscribe(classID string, ch chan FeedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[classID], ch)
	if len(f.subs[classID]) == 0 {
		delete(f.subs, classID)
	}
}

// handleClassFeed upgrades to a websocket and streams the class's
// answer events until the client disconnects.
func (h *Handler) handleClassFeed(w http.ResponseWriter, r *http.Request, u auth.User) {
	c, err := h.classroom.Class(r.Context(), u, r.PathValue("classID"))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ch := h.feed.subscribe(c.ID)
	defer h.feed.unsubscribe(c.ID, ch)

	slog.Info("class feed subscribed", "class_id", c.ID, "teacher_id", u.ID)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case evt := <-ch:
			if err := wsjson.Write(ctx, conn, evt); err != nil {
				return
			}
		}
	}
}
