// Package handlers exposes the bot's commands over HTTP for transports
// that bridge chat messages into the service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/adventhp/ledger-bot/internal/api/middleware"
	"github.com/adventhp/ledger-bot/internal/command"
	"github.com/adventhp/ledger-bot/internal/completion"
	"github.com/adventhp/ledger-bot/internal/ledger"
	"github.com/adventhp/ledger-bot/internal/parser"
)

// CommandHandler serves the bot's command endpoints.
type CommandHandler struct {
	commands *command.Service
	log      zerolog.Logger
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(commands *command.Service, log zerolog.Logger) *CommandHandler {
	return &CommandHandler{commands: commands, log: log}
}

// Register mounts all routes on the given router.
func (h *CommandHandler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/expense", h.LogExpense).Methods(http.MethodPost)
	api.HandleFunc("/income", h.LogIncome).Methods(http.MethodPost)
	api.HandleFunc("/query", h.Query).Methods(http.MethodPost)
	api.HandleFunc("/summary", h.Summary).Methods(http.MethodGet)
	api.HandleFunc("/report", h.MonthlyReport).Methods(http.MethodGet)
}

// commandRequest is the body of every text-command endpoint.
type commandRequest struct {
	Text string `json:"text"`
}

func readCommand(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return "", false
	}
	return text, true
}

// LogExpense handles POST /api/expense
func (h *CommandHandler) LogExpense(w http.ResponseWriter, r *http.Request) {
	text, ok := readCommand(w, r)
	if !ok {
		return
	}

	reply, err := h.commands.LogExpense(r.Context(), text)
	if err != nil {
		h.writeCommandError(w, r, err, "Failed to log expense")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": reply})
}

// LogIncome handles POST /api/income
func (h *CommandHandler) LogIncome(w http.ResponseWriter, r *http.Request) {
	text, ok := readCommand(w, r)
	if !ok {
		return
	}

	reply, err := h.commands.LogIncome(r.Context(), text)
	if err != nil {
		h.writeCommandError(w, r, err, "Failed to log income")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": reply})
}

// Query handles POST /api/query
func (h *CommandHandler) Query(w http.ResponseWriter, r *http.Request) {
	text, ok := readCommand(w, r)
	if !ok {
		return
	}

	answer, err := h.commands.Query(r.Context(), text)
	if err != nil {
		h.writeCommandError(w, r, err, "Failed to answer query")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// Summary handles GET /api/summary
func (h *CommandHandler) Summary(w http.ResponseWriter, r *http.Request) {
	out, err := h.commands.Summary(r.Context())
	if err != nil {
		h.writeCommandError(w, r, err, "Failed to build summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"summary": out})
}

// MonthlyReport handles GET /api/report
func (h *CommandHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	out, err := h.commands.MonthlyReport(r.Context())
	if err != nil {
		h.writeCommandError(w, r, err, "Failed to generate report")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"report": out})
}

// Health handles GET /health
func (h *CommandHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *CommandHandler) writeCommandError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	h.log.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Msg(logMsg)

	middleware.WriteError(w, statusFor(err), command.UserMessage(err))
}

func statusFor(err error) int {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, parser.ErrMalformedCompletion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, completion.ErrCompletionUnavailable),
		errors.Is(err, ledger.ErrStoreUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ledger.ErrWriteRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
