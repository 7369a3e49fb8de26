package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/config"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/middleware"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/module/resource"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/pkg"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/seed"
	"github.com/hammad-gujjar/dacci-apparel-sub000/pkg/client"
	"github.com/hammad-gujjar/dacci-apparel-sub000/pkg/types"
)

// newBackOffice serves the seeded resource API and returns a client for it.
func newBackOffice(t *testing.T) *client.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	_, err = seed.Run(context.Background(), db, nil)
	require.NoError(t, err)

	registry := resource.DefaultRegistry()
	svc := resource.NewService(resource.Deps{Registry: registry, Store: resource.NewStore(db)})
	module := resource.NewModule(resource.NewHandler(svc, pkg.ListLimits{DefaultSize: 10, MaxSize: 100}), registry)

	r := gin.New()
	api := r.Group("/api/v1", middleware.StaticCaller(domain.Caller{Subject: "e2e", Admin: true}))
	module.RegisterRoutes(api)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := client.New(client.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestTableController_AgainstServer(t *testing.T) {
	c := newBackOffice(t)
	ctx := context.Background()

	table := client.NewTableController(c, "products", func(context.Context, string, []string) bool { return true })
	require.NoError(t, table.Refresh(ctx))
	assert.EqualValues(t, 4, table.View().Total)

	_, err := table.PerformLifecycleAction(ctx, []string{"prd-dino"}, types.SoftDelete)
	require.NoError(t, err)
	assert.EqualValues(t, 3, table.View().Total)

	table.SetDeleteView(types.ViewTrashed)
	require.NoError(t, table.Refresh(ctx))
	assert.EqualValues(t, 2, table.View().Total)

	msg, err := table.PerformLifecycleAction(ctx, []string{"prd-dino"}, types.Restore)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.EqualValues(t, 1, table.View().Total)

	_, err = table.PerformLifecycleAction(ctx, []string{"prd-missing"}, types.PermanentDelete)
	require.Error(t, err)
	assert.Equal(t, 404, client.StatusOf(err))
	assert.EqualValues(t, 1, table.View().Total)
}

func TestCursorPager_AgainstServer(t *testing.T) {
	c := newBackOffice(t)
	ctx := context.Background()

	pager := client.NewCursorPager(c, 2)
	first, err := pager.LoadNext(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.True(t, pager.HasMore())

	second, err := pager.LoadNext(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.False(t, pager.HasMore())

	pager.SetDeleteView(types.ViewTrashed)
	trashed, err := pager.LoadNext(ctx)
	require.NoError(t, err)
	assert.Len(t, trashed, 2)
	assert.False(t, pager.HasMore())
}
