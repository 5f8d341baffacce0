package domain

import (
	"context"
	"errors"
)

// EventBus defines the interface for event-driven communication.
// Supports Go channels (Community) or NATS (Pro).
// All methods require tenantID for tenant isolation.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, tenantID string, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	Subscribe(ctx context.Context, tenantID string, topic string, handler MessageHandler) (Subscription, error)

	// Request sends a message and waits for a response.
	Request(ctx context.Context, tenantID string, topic string, payload []byte) ([]byte, error)

	// Reply answers a message received through Request.
	// It returns ErrNoReplyTo when msg did not ask for a reply.
	Reply(ctx context.Context, msg *Message, payload []byte) error

	Ping(ctx context.Context) error
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message is the envelope carried on the bus.
type Message struct {
	ID        string            `json:"id"`
	TenantID  string            `json:"tenantId"`
	Topic     string            `json:"topic"`
	Payload   []byte            `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp int64             `json:"timestamp"`
}

// MetadataReplyTo carries the reply address of a request message.
const MetadataReplyTo = "reply_to"

// ErrNoReplyTo is returned when replying to a message that expects none.
var ErrNoReplyTo = errors.New("message has no reply address")

// Subscription represents an active subscription.
type Subscription interface {
	Unsubscribe() error
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string `json:"type"`

	ChannelBufferSize int `json:"channelBufferSize"`

	NATSUrl           string `json:"natsUrl"`
	NATSToken         string `json:"-"`
	NATSMaxReconnects int    `json:"natsMaxReconnects"`
	NATSReconnectWait int    `json:"natsReconnectWait"` // seconds
}

// Topics of the scoring pipeline.
const (
	TopicScoreRequested      = "lendscore.score.requested"
	TopicAssessmentCompleted = "lendscore.assessment.completed"
	TopicAssessmentRejected  = "lendscore.assessment.rejected"
)

// GlobalTenantID is used by the worker's catch-all subscription.
const GlobalTenantID = "_global"

// MaxTenantIDLength bounds tenant IDs accepted at the edge.
const MaxTenantIDLength = 64

// ErrInvalidTenantID is returned for tenant IDs that cannot be used as a
// single bus subject token.
var ErrInvalidTenantID = errors.New("tenant ID must be 1-64 letters, digits, '-' or '_'")

// ValidateTenantID accepts letters, digits, '-' and '_'. Subject separators
// and wildcards ('.', '*', '>') are rejected.
func ValidateTenantID(id string) error {
	if id == "" || len(id) > MaxTenantIDLength {
		return ErrInvalidTenantID
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ErrInvalidTenantID
		}
	}
	return nil
}

// ScoreRequest is the payload of TopicScoreRequested.
type ScoreRequest struct {
	RequestID     string   `json:"requestId"`
	TenantID      string   `json:"tenantId"`
	TraceID       string   `json:"traceId,omitempty"`
	WalletAddress string   `json:"walletAddress,omitempty"`
	Profiles      Profiles `json:"profiles"`
}

// Rejection is the payload of TopicAssessmentRejected.
type Rejection struct {
	RequestID string   `json:"requestId"`
	TenantID  string   `json:"tenantId"`
	Errors    []string `json:"errors"`
}

// ScoreReply answers a ScoreRequest sent with Request. Exactly one of the
// fields is set.
type ScoreReply struct {
	Assessment *Assessment `json:"assessment,omitempty"`
	Rejection  *Rejection  `json:"rejection,omitempty"`
}
