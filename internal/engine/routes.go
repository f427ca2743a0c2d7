package engine

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/finscribe/finscribe/internal/conversation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts the engine API under /api on the given router.
func RegisterRoutes(r chi.Router, e *Engine) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/requests", handleProcessRequest(e))
		r.Get("/capabilities", handleListCapabilities(e))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(e))
			r.Post("/feedback", handleSubmitFeedback(e))
			r.Get("/events", handleSessionEvents(e))
			r.Get("/documents/{capability}/{version}/html", handleDocumentHTML(e))
		})
	})
}

type processRequestBody struct {
	Text string `json:"text"`
}

func handleProcessRequest(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body processRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
			http.Error(w, "text is required", http.StatusBadRequest)
			return
		}

		result, err := e.ProcessRequest(r.Context(), body.Text)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if result.Clarification() != nil {
			writeJSON(w, http.StatusUnprocessableEntity, result)
			return
		}
		if result.SessionID == "" {
			writeJSON(w, http.StatusBadGateway, result)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func handleListCapabilities(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, e.ListCapabilities())
	}
}

func handleGetSession(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := e.GetSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, conversation.ErrSessionNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleSubmitFeedback(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event conversation.FeedbackEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, "invalid feedback payload", http.StatusBadRequest)
			return
		}
		if event.Type == "" {
			http.Error(w, "feedback type is required", http.StatusBadRequest)
			return
		}

		result, err := e.SubmitFeedback(r.Context(), chi.URLParam(r, "id"), event)
		if err != nil {
			var invalid *conversation.InvalidTransitionError
			switch {
			case errors.Is(err, conversation.ErrSessionNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.As(err, &invalid):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// handleSessionEvents streams the session's audit trail over a
// websocket: the existing records first, then live records as they
// commit.
func handleSessionEvents(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		sess, err := e.GetSession(r.Context(), sessionID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, conversation.ErrSessionNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("engine: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		live, cancel := e.notifier.Subscribe(sessionID)
		defer cancel()

		// Replay history before streaming; records arriving in between
		// are deduplicated by seq.
		lastSeq := 0
		for _, rec := range sess.Audit {
			if err := conn.WriteJSON(rec); err != nil {
				return
			}
			lastSeq = rec.Seq
		}

		// Reader goroutine drives disconnect detection.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case rec := <-live:
				if rec.Seq <= lastSeq {
					continue
				}
				lastSeq = rec.Seq
				if err := conn.WriteJSON(rec); err != nil {
					return
				}
			case <-done:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}

func handleDocumentHTML(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		capabilityID, ok := e.registry.Resolve(chi.URLParam(r, "capability"))
		if !ok {
			http.Error(w, "unknown capability", http.StatusNotFound)
			return
		}
		version, err := strconv.Atoi(chi.URLParam(r, "version"))
		if err != nil || version < 1 {
			http.Error(w, "invalid version", http.StatusBadRequest)
			return
		}

		doc, err := e.sessions.GetDocument(r.Context(), sessionID, capabilityID, version)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, conversation.ErrVersionNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}

		page, err := e.renderer.Render(*doc)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("engine: encoding response: %v", err)
	}
}
