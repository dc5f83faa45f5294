package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yash-patil1/Cdac-Project/internal/clock"
	"github.com/yash-patil1/Cdac-Project/internal/domain"
)

type OutboundReader interface {
	ListOutbound(ctx context.Context, failedOnly bool, limit int) ([]domain.OutboundMessage, error)
}

type InboundWriter interface {
	InsertInbound(ctx context.Context, msg domain.InboundMessage) error
}

type outboundResponse struct {
	ID        string     `json:"id"`
	OrderID   string     `json:"po_id"`
	Kind      string     `json:"kind"`
	Recipient string     `json:"recipient"`
	Subject   string     `json:"subject"`
	SentAt    *time.Time `json:"sent_at"`
	SendError string     `json:"send_error,omitempty"`
}

// ListOutboundHandler serves GET /messages/outbound. ?failed=1 narrows
// the list to dispatches that need a manual resend.
func ListOutboundHandler(messages OutboundReader, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		failedOnly := false
		if raw := r.URL.Query().Get("failed"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "failed must be a boolean")
				return
			}
			failedOnly = v
		}

		list, err := messages.ListOutbound(r.Context(), failedOnly, 0)
		if err != nil {
			logger.Printf("WARN: list outbound: %v", err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		out := make([]outboundResponse, 0, len(list))
		for _, m := range list {
			out = append(out, outboundResponse{
				ID:        m.ID,
				OrderID:   m.OrderID,
				Kind:      string(m.Kind),
				Recipient: m.Recipient,
				Subject:   m.Subject,
				SentAt:    m.SentAt,
				SendError: m.SendError,
			})
		}
		writeJSON(w, http.StatusOK, out)
	})
}

type submitReplyRequest struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SubmitReplyHandler serves POST /replies. It feeds a buyer reply into
// the inbound queue exactly as the mail poller would, which makes the
// negotiation loop drivable from tests and local setups without a
// mailbox.
func SubmitReplyHandler(messages InboundWriter, clk clock.Clock, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req submitReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Subject == "" && req.Body == "" {
			writeError(w, http.StatusBadRequest, codeSubjectRequired, "subject or body required")
			return
		}

		msg := domain.InboundMessage{
			ID:          uuid.NewString(),
			FromAddress: req.From,
			Subject:     req.Subject,
			Body:        req.Body,
			ReceivedAt:  clk.Now(),
			State:       domain.MessagePending,
		}
		if err := messages.InsertInbound(r.Context(), msg); err != nil {
			logger.Printf("WARN: insert inbound: %v", err)
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": msg.ID})
	})
}
