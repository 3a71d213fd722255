package redis

import (
	"context"
	"encoding/json"
	"time"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/repository"
)

var _ repository.CodeCache = (*CodeCache)(nil)

// CodeCache holds the last parsed candidate list per account so "parse now,
// redeem in a minute" does not hit the sources twice.
type CodeCache struct {
	client *Client
	ttl    time.Duration
}

func NewCodeCache(client *Client, ttl time.Duration) *CodeCache {
	return &CodeCache{client: client, ttl: ttl}
}

func (c *CodeCache) key(accountID string) string {
	return "parsed_codes:" + accountID
}

func (c *CodeCache) Store(ctx context.Context, accountID string, codes []model.CandidateCode) error {
	data, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(accountID), data, c.ttl)
}

func (c *CodeCache) Get(ctx context.Context, accountID string) ([]model.CandidateCode, error) {
	data, err := c.client.Get(ctx, c.key(accountID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var codes []model.CandidateCode
	if err := json.Unmarshal([]byte(data), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

func (c *CodeCache) Delete(ctx context.Context, accountID string) error {
	return c.client.Del(ctx, c.key(accountID))
}
