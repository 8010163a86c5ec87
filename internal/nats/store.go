package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
	"github.com/nextlevelrentals/assistant-platform/internal/store"
)

const (
	// StreamName is the name of the chat stream.
	StreamName = "CHAT"

	// SubjectPrefix is the prefix for all chat subjects.
	SubjectPrefix = "chat"

	// casAttempts bounds optimistic retries on conversation updates.
	casAttempts = 5
)

// KV bucket names.
const (
	bucketConversations = "chat_conversations"
	bucketUsers         = "users"
	bucketLedger        = "ledger"
	bucketMaintenance   = "maintenance"
	bucketPaymentPlans  = "payment_plans"
	bucketProperties    = "properties"
	bucketNotifications = "notifications"
)

// MessageSubject returns the stream subject for a conversation message.
func MessageSubject(conversationID string, role model.MessageRole) string {
	return fmt.Sprintf("%s.conv.%s.msg.%s", SubjectPrefix, conversationID, role)
}

// conversationFilter matches every message of one conversation.
func conversationFilter(conversationID string) string {
	return fmt.Sprintf("%s.conv.%s.msg.>", SubjectPrefix, conversationID)
}

// Store implements store.Store on JetStream. Messages live in an
// append-only stream; everything else lives in KV buckets. Conversation
// documents are updated with compare-and-swap on the KV revision.
type Store struct {
	client        *Client
	js            jetstream.JetStream
	conversations jetstream.KeyValue
	users         jetstream.KeyValue
	ledger        jetstream.KeyValue
	maintenance   jetstream.KeyValue
	plans         jetstream.KeyValue
	properties    jetstream.KeyValue
	notifications jetstream.KeyValue
}

// NewStore creates the JetStream store, provisioning the chat stream and
// KV buckets if they do not exist yet.
func NewStore(ctx context.Context, client *Client) (*Store, error) {
	s := &Store{client: client, js: client.JetStream()}

	if err := s.ensureStream(ctx); err != nil {
		return nil, err
	}

	for _, b := range []struct {
		bucket string
		target *jetstream.KeyValue
	}{
		{bucketConversations, &s.conversations},
		{bucketUsers, &s.users},
		{bucketLedger, &s.ledger},
		{bucketMaintenance, &s.maintenance},
		{bucketPaymentPlans, &s.plans},
		{bucketProperties, &s.properties},
		{bucketNotifications, &s.notifications},
	} {
		kv, err := s.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  b.bucket,
			Storage: jetstream.FileStorage,
		})
		if err != nil {
			if !errors.Is(err, jetstream.ErrBucketExists) {
				return nil, fmt.Errorf("failed to create bucket %s: %w", b.bucket, err)
			}
			kv, err = s.js.KeyValue(ctx, b.bucket)
			if err != nil {
				return nil, fmt.Errorf("failed to open bucket %s: %w", b.bucket, err)
			}
		}
		*b.target = kv
	}

	return s, nil
}

// ensureStream ensures the chat stream exists with proper configuration.
func (s *Store) ensureStream(ctx context.Context) error {
	_, err := s.js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = s.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    100 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Chat messages and domain events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Conversations.

func (s *Store) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := s.getJSON(ctx, s.conversations, id, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Store) PutConversation(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	_, err = s.conversations.Put(ctx, conv.ID, data)
	return err
}

func (s *Store) UpdateConversation(ctx context.Context, id string, mutate func(*model.Conversation) error) (*model.Conversation, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		entry, err := s.conversations.Get(ctx, id)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		} else if err != nil {
			return nil, err
		}

		var conv model.Conversation
		if err := json.Unmarshal(entry.Value(), &conv); err != nil {
			return nil, err
		}
		if err := mutate(&conv); err != nil {
			return nil, err
		}

		data, err := json.Marshal(&conv)
		if err != nil {
			return nil, err
		}
		_, err = s.conversations.Update(ctx, id, data, entry.Revision())
		if err == nil {
			return &conv, nil
		}
		if !isRevisionConflict(err) {
			return nil, err
		}
	}
	return nil, store.ErrConflict
}

// AppendMessage publishes the message to the chat stream, then bumps the
// conversation document. The stream write is the source of truth; a
// failed count bump surfaces as an error, and Messages sizes reads from
// the stream itself so a stale counter never hides the published message.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := s.js.Publish(ctx, MessageSubject(conversationID, msg.Role), data)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	msg.Sequence = ack.Sequence

	_, err = s.UpdateConversation(ctx, conversationID, func(c *model.Conversation) error {
		c.MessageCount++
		c.UpdatedAt = msg.CreatedAt
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update conversation after append: %w", err)
	}
	return nil
}

// Messages reads a conversation's history. The fetch is sized from the
// consumer's pending count, not the conversation document, so a counter
// that fell behind a successful publish never hides messages; a lagging
// counter is healed from what the stream actually holds.
func (s *Store) Messages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	consumer, err := s.js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: conversationFilter(conversationID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	info, err := consumer.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect consumer: %w", err)
	}
	total := int(info.NumPending)
	if total == 0 {
		return nil, nil
	}

	batch, err := consumer.Fetch(total, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []model.Message
	for raw := range batch.Messages() {
		var msg model.Message
		if err := json.Unmarshal(raw.Data(), &msg); err != nil {
			continue
		}
		if meta, err := raw.Metadata(); err == nil {
			msg.Sequence = meta.Sequence.Stream
		}
		messages = append(messages, msg)
	}
	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("batch error: %w", err)
	}

	if len(messages) > conv.MessageCount {
		s.reconcileCount(ctx, conversationID, len(messages))
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// reconcileCount catches a conversation counter up with the stream after
// a publish whose count bump failed. Best effort; a concurrent append
// may already have repaired it.
func (s *Store) reconcileCount(ctx context.Context, conversationID string, observed int) {
	_, _ = s.UpdateConversation(ctx, conversationID, func(c *model.Conversation) error {
		if c.MessageCount < observed {
			c.MessageCount = observed
		}
		return nil
	})
}

func (s *Store) ConversationsForUser(ctx context.Context, userID string, limit int) ([]model.Conversation, error) {
	var out []model.Conversation
	err := s.scanConversations(ctx, func(c model.Conversation) {
		if c.UserID == userID {
			out = append(out, c)
		}
	})
	if err != nil {
		return nil, err
	}
	sortConversationsByUpdated(out)
	return clipConversations(out, limit), nil
}

func (s *Store) EscalatedConversations(ctx context.Context, limit int) ([]model.Conversation, error) {
	var out []model.Conversation
	err := s.scanConversations(ctx, func(c model.Conversation) {
		if c.Status == model.StatusEscalated {
			out = append(out, c)
		}
	})
	if err != nil {
		return nil, err
	}
	sortConversationsByUpdated(out)
	return clipConversations(out, limit), nil
}

// Domain documents.

func (s *Store) User(ctx context.Context, id string) (*model.UserProfile, error) {
	var u model.UserProfile
	if err := s.getJSON(ctx, s.users, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UsersByRole(ctx context.Context, role model.UserRole) ([]model.UserProfile, error) {
	var out []model.UserProfile
	err := s.scan(ctx, s.users, "", func(data []byte) error {
		var u model.UserProfile
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		if u.Role == role {
			out = append(out, u)
		}
		return nil
	})
	return out, err
}

func (s *Store) LedgerForTenant(ctx context.Context, tenantID string, since time.Time) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	err := s.scan(ctx, s.ledger, tenantID+".", func(data []byte) error {
		var e model.LedgerEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		if !e.Date.Before(since) {
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) LedgerBetween(ctx context.Context, from, to time.Time) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	err := s.scan(ctx, s.ledger, "", func(data []byte) error {
		var e model.LedgerEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func (s *Store) OverdueLedger(ctx context.Context) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	err := s.scan(ctx, s.ledger, "", func(data []byte) error {
		var e model.LedgerEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		if e.Status == "overdue" {
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func (s *Store) AppendLedgerEntry(ctx context.Context, entry *model.LedgerEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = s.ledger.Put(ctx, entry.TenantID+"."+entry.ID, data)
	return err
}

func (s *Store) MaintenanceForTenant(ctx context.Context, tenantID string, limit int) ([]model.MaintenanceRequest, error) {
	var out []model.MaintenanceRequest
	err := s.scan(ctx, s.maintenance, "", func(data []byte) error {
		var r model.MaintenanceRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		if r.TenantID == tenantID {
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortMaintenanceByCreated(out)
	return clipMaintenance(out, limit), nil
}

func (s *Store) MaintenanceByStatus(ctx context.Context, statuses []string, limit int) ([]model.MaintenanceRequest, error) {
	want := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	var out []model.MaintenanceRequest
	err := s.scan(ctx, s.maintenance, "", func(data []byte) error {
		var r model.MaintenanceRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		if len(want) == 0 || want[r.Status] {
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortMaintenanceByCreated(out)
	return clipMaintenance(out, limit), nil
}

func (s *Store) CreateMaintenanceRequest(ctx context.Context, req *model.MaintenanceRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	_, err = s.maintenance.Put(ctx, req.ID, data)
	return err
}

func (s *Store) ActivePaymentPlan(ctx context.Context, tenantID string) (*model.PaymentPlan, error) {
	var found *model.PaymentPlan
	err := s.scan(ctx, s.plans, tenantID+".", func(data []byte) error {
		var p model.PaymentPlan
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		if found == nil && p.Status == "active" {
			found = &p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (s *Store) Properties(ctx context.Context) ([]model.Property, error) {
	var out []model.Property
	err := s.scan(ctx, s.properties, "", func(data []byte) error {
		var p model.Property
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (s *Store) Property(ctx context.Context, id string) (*model.Property, error) {
	var p model.Property
	if err := s.getJSON(ctx, s.properties, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = s.notifications.Put(ctx, n.UserID+"."+n.ID, data)
	return err
}

// Helpers.

func (s *Store) getJSON(ctx context.Context, kv jetstream.KeyValue, key string, v any) error {
	entry, err := kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return store.ErrNotFound
	} else if err != nil {
		return err
	}
	return json.Unmarshal(entry.Value(), v)
}

// scan visits every value in the bucket whose key starts with prefix.
func (s *Store) scan(ctx context.Context, kv jetstream.KeyValue, prefix string, visit func([]byte) error) error {
	keys, err := kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil
	} else if err != nil {
		return err
	}

	for _, key := range keys {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		entry, err := kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			continue
		} else if err != nil {
			return err
		}
		if err := visit(entry.Value()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) scanConversations(ctx context.Context, visit func(model.Conversation)) error {
	return s.scan(ctx, s.conversations, "", func(data []byte) error {
		var c model.Conversation
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		visit(c)
		return nil
	})
}

func isRevisionConflict(err error) bool {
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

func sortConversationsByUpdated(out []model.Conversation) {
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
}

func clipConversations(out []model.Conversation, limit int) []model.Conversation {
	if limit > 0 && len(out) > limit {
		return out[:limit]
	}
	return out
}

func sortMaintenanceByCreated(out []model.MaintenanceRequest) {
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
}

func clipMaintenance(out []model.MaintenanceRequest, limit int) []model.MaintenanceRequest {
	if limit > 0 && len(out) > limit {
		return out[:limit]
	}
	return out
}
