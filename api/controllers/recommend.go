package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartdine/smartdine-backend/api/middleware"
	"github.com/smartdine/smartdine-backend/api/responses"
	"github.com/smartdine/smartdine-backend/api/validators"
	"github.com/smartdine/smartdine-backend/internal/recommend"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/logger"
)

// streamChunkRunes is the token event granularity of the SSE endpoint. Replies
// are sliced on rune boundaries so multi-byte text never splits mid-character.
const streamChunkRunes = 24

type chatMessagePayload struct {
	Content string `json:"content" validate:"required"`
}

// ChatSessionCreate opens a new recommendation session.
func ChatSessionCreate(svc recommend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		sessionID, err := svc.CreateSession(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"session_id": sessionID})
	}
}

// ChatSendMessage runs one recommendation turn and returns the full result.
func ChatSendMessage(svc recommend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		sessionID, err := validators.ParsePathID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload chatMessagePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.SendMessage(ctx, userID, sessionID, payload.Content)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ChatStreamMessage runs the same recommendation turn but delivers the result
// as server-sent events: the reply in token chunks, then the structured
// recommendations, then a done marker.
func ChatStreamMessage(svc recommend.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := middleware.UserIDFromContext(ctx)
		if userID == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		sessionID, err := validators.ParsePathID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload chatMessagePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		// generation errors before the first byte still go out as JSON
		result, err := svc.SendMessage(ctx, userID, sessionID, payload.Content)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		for _, chunk := range chunkRunes(result.Response.Reply, streamChunkRunes) {
			writeSSE(w, "token", map[string]string{"text": chunk})
			flusher.Flush()
		}

		writeSSE(w, "recommendations", result)
		writeSSE(w, "done", map[string]bool{"ok": true})
		flusher.Flush()
	}
}

func chunkRunes(text string, size int) []string {
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func writeSSE(w http.ResponseWriter, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
