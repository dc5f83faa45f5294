package domain

import "time"

// ReplyIntent is the classified meaning of a buyer's free-text reply
// during partial-fulfillment negotiation.
type ReplyIntent string

const (
	IntentApprove ReplyIntent = "APPROVE"
	IntentReject  ReplyIntent = "REJECT"
	IntentUnclear ReplyIntent = "UNCLEAR"
)

type MessageState string

const (
	MessagePending   MessageState = "pending"
	MessageProcessed MessageState = "processed"
	// MessageUnmatched marks a reply whose order token could not be
	// resolved; it is left for manual review and never retried.
	MessageUnmatched MessageState = "unmatched"
	// MessageUnclear marks a reply whose intent could not be classified.
	MessageUnclear MessageState = "unclear"
)

// InboundMessage is a buyer reply handed off by the mail ingestion
// collaborator. The correlator consumes pending messages.
type InboundMessage struct {
	ID          string
	FromAddress string
	Subject     string
	Body        string
	ReceivedAt  time.Time
	State       MessageState
	Note        string
}

type MessageKind string

const (
	KindFulfilled        MessageKind = "fulfilled"
	KindOutOfStock       MessageKind = "out_of_stock"
	KindProposal         MessageKind = "proposal"
	KindPartialConfirmed MessageKind = "partial_confirmed"
)

// OutboundMessage records every dispatch attempt. A row with a
// SendError and no SentAt is the manual-resend surface for dispatch
// failures that happened after inventory was already committed.
type OutboundMessage struct {
	ID         string
	OrderID    string
	Kind       MessageKind
	Recipient  string
	Subject    string
	Body       string
	Attachment string
	SentAt     *time.Time
	SendError  string
}
