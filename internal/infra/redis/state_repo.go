package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/ports/repository"
)

var _ repository.StateRepository = (*StateRepo)(nil)

// StateRepo keeps operator conversational state in Redis. The TTL doubles as
// the secret's shelf life: a verification secret typed into the bot is gone
// from Redis within minutes whether or not it gets used.
type StateRepo struct {
	client *Client
	ttl    time.Duration
}

func NewStateRepo(client *Client) repository.StateRepository {
	return &StateRepo{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (s *StateRepo) stateKey(tgID int64) string {
	return fmt.Sprintf("conv_state:%d", tgID)
}

func (s *StateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(tgID), data, s.ttl)
}

func (s *StateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	data, err := s.client.Get(ctx, s.stateKey(tgID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var state repository.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *StateRepo) ClearState(ctx context.Context, tgID int64) error {
	return s.client.Del(ctx, s.stateKey(tgID))
}
