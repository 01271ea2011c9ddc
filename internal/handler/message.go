package handler

import (
	"net/http"

	"github.com/msomdec/skill-match/internal/domain"
	"github.com/msomdec/skill-match/internal/service"
)

// MessageHandler serves conversation history over REST. Live delivery goes
// through the websocket channel.
type MessageHandler struct {
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// HandleGetMessages returns the conversation between the caller and "to".
// POST /api/messages/getMsg
// Request:  {"from":"...","to":"..."}
// Response: [{"fromSelf":bool,"message":"...","timestamp":"..."}]
func (h *MessageHandler) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}
	if !callerMatches(w, user, req.From) {
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "MissingFields", "from and to are required.")
		return
	}

	views, err := h.messages.History(r.Context(), user.ID, req.To)
	if err != nil {
		writeServiceError(w, "get messages", err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageDTOs(views))
}

// HandleAddMessage stores a message without pushing it live.
// POST /api/messages/addMsg
// Request:  {"from":"...","to":"...","message":"...","attachment":"..."}
// Response: 201 {"message":"Message added successfully."}
func (h *MessageHandler) HandleAddMessage(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	var req struct {
		From       string `json:"from"`
		To         string `json:"to"`
		Message    string `json:"message"`
		Attachment string `json:"attachment"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation", "Invalid request body.")
		return
	}
	if !callerMatches(w, user, req.From) {
		return
	}

	body := domain.MessageBody{Text: req.Message, Attachment: req.Attachment}
	if req.To == "" || body.IsEmpty() {
		writeError(w, http.StatusBadRequest, "MissingFields", "from, to and message are required.")
		return
	}

	if _, err := h.messages.Add(r.Context(), user.ID, req.To, body); err != nil {
		writeServiceError(w, "add message", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Message added successfully.")
}

// callerMatches allows an empty from (defaulting to the caller) and rejects
// a from naming anyone else.
func callerMatches(w http.ResponseWriter, user *domain.User, from string) bool {
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "Not authenticated.")
		return false
	}
	if from != "" && from != user.ID {
		writeError(w, http.StatusForbidden, "Forbidden", "from must be the authenticated user.")
		return false
	}
	return true
}
