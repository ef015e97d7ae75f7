package rules

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurerisk/services"
	"procurerisk/types"
	"procurerisk/util"
)

// redisClient connects to REDIS_ADDR (default localhost:6379) and skips the
// test when nothing answers there.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client, err := services.ConnectRedis(context.Background(), addr)
	if err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		client.Del(context.Background(), denylistKey)
		client.Close()
	})
	require.NoError(t, client.Del(context.Background(), denylistKey).Err())
	return client
}

func TestRedisDenylistSeedAndUpdate(t *testing.T) {
	client := redisClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rule, list, err := parseDenylistRule(ctx, map[string]interface{}{
		"source":  util.Sources.Redis,
		"vendors": []interface{}{"Shady Supplies"},
	}, client)
	require.NoError(t, err)
	assert.Equal(t, defaultDenylistWeight, rule.Weight)
	assert.Equal(t, util.Sources.Redis, list.Source())

	vendors, err := list.Vendors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shady supplies"}, vendors)

	status, err := list.Update(ctx, "  Ghost  Builders ", "add")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	vendors, err = list.Vendors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost builders", "shady supplies"}, vendors)

	// a batch sees the list as it was when its snapshot was taken
	index := types.NewVendorAwardIndex(nil, vendors)

	status, err = list.Update(ctx, "shady supplies", "remove")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	_, flagged := rule.Evaluate(types.ContractRecord{Vendor: "Shady Supplies"}, index)
	assert.True(t, flagged)

	vendors, err = list.Vendors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost builders"}, vendors)

	status, err = list.Update(ctx, "", "add")
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}
