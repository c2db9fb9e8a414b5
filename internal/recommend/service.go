package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/smartdine/smartdine-backend/internal/dishes"
	"github.com/smartdine/smartdine-backend/internal/preferences"
	"github.com/smartdine/smartdine-backend/pkg/config"
	"github.com/smartdine/smartdine-backend/pkg/db/models"
	"github.com/smartdine/smartdine-backend/pkg/enums"
	pkgerrors "github.com/smartdine/smartdine-backend/pkg/errors"
	"github.com/smartdine/smartdine-backend/pkg/genai"
	"github.com/smartdine/smartdine-backend/pkg/logger"
	"github.com/smartdine/smartdine-backend/pkg/redis"
)

// Generator produces a raw text completion for an ordered list of turns.
// Satisfied by the genai client; stubbed in tests.
type Generator interface {
	ChatCompletion(ctx context.Context, messages []genai.Message) (string, error)
}

// CandidateCache is the optional short-TTL cache in front of recall.
// Satisfied by the redis client wrapper.
type CandidateCache interface {
	CacheKey(scope, id string) string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Meta describes how a recommendation result was produced.
type Meta struct {
	Degraded  bool  `json:"degraded"`
	Repaired  bool  `json:"repaired,omitempty"`
	LatencyMs int64 `json:"latency_ms"`
}

// Result is the accepted response plus its generation metadata.
type Result struct {
	Response *Response `json:"response"`
	Meta     Meta      `json:"meta"`
}

// Service orchestrates recall, generation, validation, repair and fallback,
// and keeps the per-session audit trail.
type Service interface {
	CreateSession(ctx context.Context, userID int64) (int64, error)
	SendMessage(ctx context.Context, userID, sessionID int64, content string) (*Result, error)
}

type service struct {
	repo        Repository
	dishes      dishes.Repository
	preferences preferences.Service
	generator   Generator
	cache       CandidateCache
	log         *logger.Logger
	cfg         config.RecommendConfig
	clock       func() time.Time
}

// NewService builds the recommendation service. cache may be nil; recall then
// always goes to the database.
func NewService(
	repo Repository,
	dishRepo dishes.Repository,
	prefs preferences.Service,
	generator Generator,
	cache CandidateCache,
	log *logger.Logger,
	cfg config.RecommendConfig,
) Service {
	return &service{
		repo:        repo,
		dishes:      dishRepo,
		preferences: prefs,
		generator:   generator,
		cache:       cache,
		log:         log,
		cfg:         cfg,
		clock:       time.Now,
	}
}

func (s *service) CreateSession(ctx context.Context, userID int64) (int64, error) {
	session := &models.ChatSession{UserID: userID}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chat session")
	}
	return session.ID, nil
}

func (s *service) SendMessage(ctx context.Context, userID, sessionID int64, content string) (*Result, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message content must not be empty")
	}

	if _, err := s.repo.FindOwnedSession(ctx, sessionID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat session not found").
				WithDetails(map[string]any{"session_id": sessionID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat session")
	}

	pref, err := s.preferences.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	// the user turn is recorded before generation so the trail survives a
	// failed call
	if err := s.repo.AppendMessage(ctx, &models.ChatMessage{
		SessionID: sessionID,
		Role:      enums.ChatRoleUser,
		Content:   content,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record user message")
	}

	candidates, err := s.recallCandidates(ctx, content, pref.DietaryRestrictions)
	if err != nil {
		return nil, err
	}

	result := s.generate(ctx, pref, content, candidates)

	candidateIDs := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		candidateIDs = append(candidateIDs, c.ID)
	}
	recommendedIDs := make([]int64, 0, len(result.Response.Recommendations))
	for _, rec := range result.Response.Recommendations {
		recommendedIDs = append(recommendedIDs, rec.DishID)
	}
	metaJSON, _ := json.Marshal(result.Meta)

	if err := s.repo.AppendMessage(ctx, &models.ChatMessage{
		SessionID:          sessionID,
		Role:               enums.ChatRoleAssistant,
		Content:            result.Response.Reply,
		RecommendedDishIDs: recommendedIDs,
		CandidateDishIDs:   candidateIDs,
		Meta:               metaJSON,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record assistant message")
	}

	return result, nil
}

// generate runs the generate -> validate -> repair-once -> fallback ladder.
// Transport errors and timeouts take the same path as validation failures;
// nothing from this ladder ever surfaces to the caller as an error.
func (s *service) generate(ctx context.Context, pref *models.UserPreferences, query string, candidates []CandidateEntry) *Result {
	started := s.clock()
	candidateIDs := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		candidateIDs[c.ID] = struct{}{}
	}

	prompt := BuildPrompt(PromptInput{
		UserTags:            pref.ExplicitTags,
		DietaryRestrictions: pref.DietaryRestrictions,
		ImplicitProfile:     pref.ImplicitProfile,
		Now:                 started,
		Query:               query,
		Candidates:          candidates,
	})

	latency := func() int64 { return s.clock().Sub(started).Milliseconds() }

	resp, err := s.generateOnce(ctx, prompt, candidateIDs)
	if err == nil {
		return &Result{Response: resp, Meta: Meta{LatencyMs: latency()}}
	}
	s.log.Warn(ctx, "generation attempt failed: "+err.Error())

	resp, err = s.generateOnce(ctx, AppendRepairTurn(prompt), candidateIDs)
	if err == nil {
		return &Result{Response: resp, Meta: Meta{Repaired: true, LatencyMs: latency()}}
	}
	s.log.Warn(ctx, "repair attempt failed: "+err.Error())

	return &Result{
		Response: Fallback(pref.ExplicitTags, query, candidates),
		Meta:     Meta{Degraded: true, LatencyMs: latency()},
	}
}

func (s *service) generateOnce(ctx context.Context, prompt []genai.Message, candidateIDs map[int64]struct{}) (*Response, error) {
	raw, err := s.generator.ChatCompletion(ctx, prompt)
	if err != nil {
		return nil, err
	}
	resp, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	if err := EnforceCandidateOnly(resp, candidateIDs); err != nil {
		return nil, err
	}
	return resp, nil
}

// recallCandidates runs recall with a short-TTL cache in front. Cache failures
// degrade silently to a database recall.
func (s *service) recallCandidates(ctx context.Context, query string, restrictions []string) ([]CandidateEntry, error) {
	if s.cache == nil {
		return Recall(ctx, s.dishes, query, restrictions, s.cfg.CandidateLimit)
	}

	key := s.cache.CacheKey("candidates", candidateCacheID(query, restrictions))
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var candidates []CandidateEntry
		if jsonErr := json.Unmarshal([]byte(cached), &candidates); jsonErr == nil {
			return candidates, nil
		}
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		s.log.Warn(ctx, "candidate cache read failed: "+err.Error())
	}

	candidates, err := Recall(ctx, s.dishes, query, restrictions, s.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(candidates); jsonErr == nil {
		if setErr := s.cache.Set(ctx, key, payload, s.cfg.CacheTTL); setErr != nil {
			s.log.Warn(ctx, "candidate cache write failed: "+setErr.Error())
		}
	}
	return candidates, nil
}

func candidateCacheID(query string, restrictions []string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	for _, r := range restrictions {
		h.Write([]byte{0})
		h.Write([]byte(strings.ToLower(strings.TrimSpace(r))))
	}
	return hex.EncodeToString(h.Sum(nil))[:24]
}
