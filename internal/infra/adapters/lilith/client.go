// File: internal/infra/adapters/lilith/client.go
package lilith

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"afk-code-redeemer/internal/config"
	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.SessionFactory = (*Factory)(nil)

// Factory builds redemption sessions against the Lilith cdkey service.
type Factory struct {
	cfg    config.GatewayConfig
	client *http.Client
	log    *zerolog.Logger
}

func NewFactory(cfg config.GatewayConfig, log *zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

func (f *Factory) NewSession(accountID, verificationSecret string) adapter.RedemptionSession {
	return &session{
		cfg:    f.cfg,
		client: f.client,
		log:    f.log,
		uid:    accountID,
		secret: verificationSecret,
	}
}

var _ adapter.RedemptionSession = (*session)(nil)

// session is one authenticated exchange. The bearer token is bound to a
// single verification secret and dies with it; nothing here is reusable
// across runs.
type session struct {
	cfg    config.GatewayConfig
	client *http.Client
	log    *zerolog.Logger
	uid    string
	secret string
	token  string
}

// apiEnvelope is the common response wrapper: success plus either message or
// info carrying the human-readable reason.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Info    string          `json:"info"`
	Data    json.RawMessage `json:"data"`
}

func (e *apiEnvelope) reason() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Info
}

func (s *session) post(ctx context.Context, path string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if s.cfg.ClientID != "" {
		req.Header.Set("X-Client-Id", s.cfg.ClientID)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, data, nil
}

// Authenticate exchanges the verification secret for a bearer token.
func (s *session) Authenticate(ctx context.Context) error {
	status, body, err := s.post(ctx, "/api/verify-afk-code", map[string]string{
		"uid":  s.uid,
		"game": s.cfg.Game,
		"code": s.secret,
	})
	if err != nil {
		return fmt.Errorf("verify request: %w", err)
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("verify response (status %d): %w", status, err)
	}
	if status != http.StatusOK || !env.Success {
		s.log.Warn().Int("status", status).Str("reason", env.reason()).Msg("account verification rejected")
		return domain.ErrAuthFailed
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return domain.ErrAuthFailed
	}
	s.token = data.Token
	return nil
}

// roleDTO tolerates the service sending uid/svr_id as either numbers or
// strings.
type roleDTO struct {
	Name   string      `json:"name"`
	SvrID  json.Number `json:"svr_id"`
	Level  int         `json:"level"`
	UID    json.Number `json:"uid"`
	IsMain bool        `json:"is_main"`
}

func (s *session) ListRoles(ctx context.Context) ([]model.Role, error) {
	if s.token == "" {
		return nil, domain.ErrUnauthorized
	}
	status, body, err := s.post(ctx, "/api/users", map[string]string{
		"uid":  s.uid,
		"game": s.cfg.Game,
	})
	if err != nil {
		return nil, fmt.Errorf("list roles request: %w", err)
	}
	if status == http.StatusUnauthorized {
		return nil, domain.ErrUnauthorized
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("list roles response (status %d): %w", status, err)
	}
	if !env.Success {
		return nil, fmt.Errorf("list roles rejected: %s", env.reason())
	}

	var data struct {
		Roles []roleDTO `json:"roles"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}

	roles := make([]model.Role, 0, len(data.Roles))
	for _, r := range data.Roles {
		roles = append(roles, model.Role{
			ID:       r.UID.String(),
			Name:     r.Name,
			ServerID: r.SvrID.String(),
			Level:    r.Level,
			IsMain:   r.IsMain,
		})
	}
	return roles, nil
}

func (s *session) Redeem(ctx context.Context, code string, role model.Role) (adapter.AttemptResult, error) {
	if s.token == "" {
		return adapter.AttemptResult{}, domain.ErrUnauthorized
	}
	status, body, err := s.post(ctx, "/api/consume", map[string]string{
		"appId":   s.cfg.AppID,
		"roleId":  role.ID,
		"game":    s.cfg.Game,
		"cdkey":   code,
		"pupBody": s.cfg.PupBody,
	})
	if err != nil {
		return adapter.AttemptResult{}, err
	}

	res := adapter.AttemptResult{StatusCode: status}
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Non-JSON body (proxy error page etc). Keep a snippet for logs.
		res.Message = bodySnippet(body)
		return res, nil
	}
	res.Success = env.Success
	res.Message = env.reason()
	return res, nil
}

func bodySnippet(b []byte) string {
	const max = 200
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
