package app

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/healthdesk/assistant/internal/config"
	"github.com/healthdesk/assistant/internal/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Database.SQLite.Path = ":memory:"
	cfg.Locator.Delay = 0
	return cfg
}

func TestNew_WithoutHistory(t *testing.T) {
	a, err := New(context.Background(), testConfig(), nil, Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.History)
	assert.NotNil(t, a.Cache)
	assert.IsType(t, &retrieval.CachedAnswerer{}, a.Answerer)
	assert.False(t, a.Chat.HistoryEnabled())

	res := a.Answerer.Resolve(context.Background(), "headache")
	assert.Equal(t, retrieval.StageKnowledge, res.Stage)
}

func TestNew_WithHistory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), nil, Options{History: true, Migrate: true})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.History)
	reply, err := a.Chat.Ask(ctx, uuid.Nil, "fever")
	require.NoError(t, err)

	turns, err := a.History.ListBySession(ctx, reply.SessionID)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestNew_CacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Driver = "none"

	a, err := New(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Cache)
	assert.Same(t, a.Resolver, a.Answerer)
}

func TestNew_BadKnowledgeBase(t *testing.T) {
	cfg := testConfig()
	cfg.Resolver.KnowledgeBasePath = "missing.yaml"

	_, err := New(context.Background(), cfg, nil, Options{})
	assert.Error(t, err)
}
