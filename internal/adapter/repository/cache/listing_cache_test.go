//go:build integration

package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClient *redis.Client

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start Redis resource: %s", err)
	}

	if err := pool.Retry(func() error {
		var errRetry error
		testClient, errRetry = NewRedisClient(context.Background(), resource.GetHostPort("6379/tcp"), "", 0)
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to Redis: %s", err)
	}

	code := m.Run()

	_ = testClient.Close()
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge Redis resource: %s", err)
	}
	os.Exit(code)
}

func TestListingCache(t *testing.T) {
	ctx := context.Background()
	c := NewListingCache(testClient, time.Minute, logger.NewNop())
	lat := 38.7

	l := &domain.Listing{
		ID:           fmt.Sprintf("%024x", time.Now().UnixNano()),
		OwnerID:      "owner",
		Address:      "Rua Augusta 10",
		Country:      "Portugal",
		Price:        200000,
		Features:     []domain.Feature{domain.FeaturePool},
		Images:       []string{"https://blob.test/a.jpg"},
		Latitude:     &lat,
		Availability: domain.Availability{ForSale: true},
		Revision:     3,
		CreatedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	_, err := c.Get(ctx, l.ID)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, l))
	got, err := c.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.Address, got.Address)
	assert.Equal(t, l.Features, got.Features)
	assert.Equal(t, l.Availability, got.Availability)
	assert.Equal(t, 38.7, *got.Latitude)
	assert.True(t, l.CreatedAt.Equal(got.CreatedAt))

	ttl, err := testClient.TTL(ctx, listingKey(l.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Delete(ctx, l.ID))
	_, err = c.Get(ctx, l.ID)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, testClient.Set(ctx, listingKey("broken"), "{not json", time.Minute).Err())
	_, err = c.Get(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}
