package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/crmlite/internal/adapter/postgres"
	"github.com/Strob0t/crmlite/internal/config"
	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/interaction"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
	"github.com/Strob0t/crmlite/internal/domain/strategy"
	"github.com/Strob0t/crmlite/internal/domain/user"
)

// setupStore connects to DATABASE_URL, applies migrations and returns a
// ready-to-use Store. The pool is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	cfg := config.Defaults().Postgres
	cfg.DSN = dsn
	pool, err := postgres.NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := postgres.NewStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func createUser(t *testing.T, store *postgres.Store) *user.User {
	t.Helper()
	id := "test-" + uuid.NewString()
	u, err := store.UpsertUser(context.Background(), user.CreateRequest{ID: id, Email: id + "@example.com"})
	require.NoError(t, err)
	return u
}

func createOpportunity(t *testing.T, store *postgres.Store, userID string) *opportunity.Opportunity {
	t.Helper()
	o, err := store.CreateOpportunity(context.Background(), opportunity.CreateRequest{
		Name: "Acme Corp", Email: "buyer@acme.test", Status: opportunity.StatusNew, Value: 1200, UserID: userID,
	})
	require.NoError(t, err)
	return o
}

func TestStore_EnsureSchemaIdempotent(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.EnsureSchema(context.Background()))
}

func TestStore_UpsertUserReturnsExistingRow(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	u := createUser(t, store)

	name := "Someone Else"
	again, err := store.UpsertUser(ctx, user.CreateRequest{ID: u.ID, Email: "other-" + u.Email, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, u.Email, again.Email)
	assert.Nil(t, again.FullName)
}

func TestStore_CreateOpportunityUnknownUser(t *testing.T) {
	store := setupStore(t)
	_, err := store.CreateOpportunity(context.Background(), opportunity.CreateRequest{
		Name: "Ghost", Email: "ghost@example.com", Status: opportunity.StatusNew, UserID: "no-such-" + uuid.NewString(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrReferentialIntegrity))

	var ref *domain.ReferenceError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "user", ref.Parent)
}

func TestStore_UpdateOpportunity(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	u := createUser(t, store)
	o := createOpportunity(t, store, u.ID)

	same, err := store.UpdateOpportunity(ctx, o.ID, opportunity.UpdateRequest{})
	require.NoError(t, err)
	assert.True(t, same.UpdatedAt.Equal(o.UpdatedAt))

	time.Sleep(5 * time.Millisecond)
	status := opportunity.StatusWon
	got, err := store.UpdateOpportunity(ctx, o.ID, opportunity.UpdateRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, opportunity.StatusWon, got.Status)
	assert.Equal(t, o.Name, got.Name)
	assert.True(t, got.UpdatedAt.After(o.UpdatedAt))

	_, err = store.UpdateOpportunity(ctx, -1, opportunity.UpdateRequest{Status: &status})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListOpportunitiesFilter(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	a := createUser(t, store)
	b := createUser(t, store)
	first := createOpportunity(t, store, a.ID)
	second := createOpportunity(t, store, a.ID)
	createOpportunity(t, store, b.ID)

	list, err := store.ListOpportunities(ctx, opportunity.ListFilter{UserID: a.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	won, err := store.ListOpportunities(ctx, opportunity.ListFilter{UserID: a.ID, Status: opportunity.StatusWon})
	require.NoError(t, err)
	assert.Empty(t, won)
}

func TestStore_DeleteOpportunityCascades(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	u := createUser(t, store)
	o := createOpportunity(t, store, u.ID)

	for range 2 {
		_, err := store.CreateInteraction(ctx, interaction.CreateRequest{
			Type: interaction.TypePhoneCall, Notes: "called", OpportunityID: o.ID,
		})
		require.NoError(t, err)
	}
	_, err := store.CreateStrategy(ctx, &strategy.Strategy{
		Summary: "s", Sentiment: "Positive", NextStep: "n", TacticalAdvice: "t", OpportunityID: o.ID,
	})
	require.NoError(t, err)

	res, err := store.DeleteOpportunity(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, opportunity.CascadeResult{Interactions: 2, Strategies: 1}, res)

	items, err := store.ListInteractions(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	n, err := store.CountStrategies(ctx, o.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = store.DeleteOpportunity(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_CreateInteractionUnknownOpportunity(t *testing.T) {
	store := setupStore(t)
	_, err := store.CreateInteraction(context.Background(), interaction.CreateRequest{
		Type: interaction.TypeCustomNote, Notes: "orphan", OpportunityID: -42,
	})
	assert.ErrorIs(t, err, domain.ErrReferentialIntegrity)
}

func TestStore_LatestStrategyTieBreak(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	u := createUser(t, store)
	o := createOpportunity(t, store, u.ID)

	_, err := store.LatestStrategy(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	at := time.Now().UTC().Truncate(time.Millisecond)
	var last *strategy.Strategy
	for range 2 {
		last, err = store.CreateStrategy(ctx, &strategy.Strategy{
			Summary: "s", Sentiment: "Neutral", NextStep: "n", TacticalAdvice: "t",
			OpportunityID: o.ID, CreatedAt: at,
		})
		require.NoError(t, err)
	}

	got, err := store.LatestStrategy(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, last.ID, got.ID)
}
