package qret_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/qret"
	"github.com/aretw0/qret/internal/logging"
	"github.com/aretw0/qret/pkg/adapters/memory"
	"github.com/aretw0/qret/pkg/adapters/xlsx"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, cfg qret.Config, opts ...qret.Option) *qret.App {
	t.Helper()
	opts = append([]qret.Option{qret.WithLogger(logging.NewNop())}, opts...)
	app, err := qret.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNew_DemoReturn(t *testing.T) {
	app := newApp(t, qret.DefaultConfig())
	ctx := context.Background()

	snap, err := app.Sessions.Start(ctx, "register-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseReceipts, snap.Transaction.Phase)

	inv, err := app.Invoices.Find(ctx, "INV-2001")
	require.NoError(t, err)
	_, err = app.Sessions.AddInvoice(ctx, "register-1", inv)
	require.NoError(t, err)
	_, err = app.Sessions.SetQuantity(ctx, "register-1", "1122", 2)
	require.NoError(t, err)

	sum, err := app.Sessions.Refund(ctx, "register-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2*1299), sum.TotalValueCents)
	assert.Equal(t, 1, sum.UnreceiptedQty)
	assert.Equal(t, int64(1299), sum.UnreceiptedCents)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := qret.DefaultConfig()
	cfg.Store.Kind = "tape"
	_, err := qret.New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = qret.DefaultConfig()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
	_, err = qret.New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_StrictPhases(t *testing.T) {
	cfg := qret.DefaultConfig()
	cfg.Session.StrictPhases = true
	app := newApp(t, cfg)
	ctx := context.Background()

	_, err := app.Sessions.Start(ctx, "s")
	require.NoError(t, err)

	_, err = app.Sessions.AdvancePhase(ctx, "s", domain.PhaseTender)
	assert.ErrorIs(t, err, domain.ErrPhaseRejected)

	_, err = app.Sessions.NextPhase(ctx, "s")
	require.NoError(t, err)
	_, err = app.Sessions.NextPhase(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrPhaseRejected, "nothing selected for return")
}

func TestNew_FileStoreIsMaskedAndSealed(t *testing.T) {
	dir := t.TempDir()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	cfg := qret.DefaultConfig()
	cfg.Store.Kind = "file"
	cfg.Store.Path = dir
	cfg.Store.Mask = []string{`^customer\.email$`}
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(key)
	app := newApp(t, cfg)
	ctx := context.Background()

	_, err := app.Sessions.Start(ctx, "s")
	require.NoError(t, err)
	inv, err := app.Invoices.Find(ctx, "INV-1001")
	require.NoError(t, err)
	_, err = app.Sessions.AddInvoice(ctx, "s", inv)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "s.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Ada Lovelace")
	assert.Contains(t, string(raw), `"sealed"`)

	snap, err := app.Sessions.Load(ctx, "s")
	require.NoError(t, err)
	stored, ok := snap.Transaction.Receipts.Get("INV-1001")
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", stored.Customer.Name)
	assert.Equal(t, "***", stored.Customer.Email)
}

func TestNew_RedisStoreAndLocks(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := qret.DefaultConfig()
	cfg.Store.Kind = "redis"
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Lock = true
	app := newApp(t, cfg)
	ctx := context.Background()

	_, err := app.Sessions.Start(ctx, "s")
	require.NoError(t, err)
	_, _, err = app.Sessions.Click(ctx, "s", "items-screen")
	require.NoError(t, err)

	ids, err := app.Sessions.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, ids)
	assert.True(t, mr.Exists("qret:session:s:s"))
	assert.False(t, mr.Exists("qret:session:lock:s"), "lock released after the command")
}

func TestNew_XLSXCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, xlsx.Write(path, []domain.CatalogEntry{
		{ItemID: "1122", Description: "Trail runner", UnitValueCents: 1000},
	}))

	cfg := qret.DefaultConfig()
	cfg.Catalog.Source = "xlsx"
	cfg.Catalog.Path = path
	app := newApp(t, cfg)
	ctx := context.Background()

	_, err := app.Sessions.Start(ctx, "s")
	require.NoError(t, err)
	_, err = app.Sessions.SetQuantity(ctx, "s", "1122", 1)
	require.NoError(t, err)

	sum, err := app.Sessions.Refund(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), sum.TotalValueCents, "unreceipted units use the catalog price")
}

func TestNew_Hooks(t *testing.T) {
	var clicks []string
	app := newApp(t, qret.DefaultConfig(), qret.WithHooks(domain.Hooks{
		OnClick: func(_ context.Context, e *domain.ClickEvent) {
			clicks = append(clicks, e.TargetID)
		},
	}))
	ctx := context.Background()

	_, err := app.Sessions.Start(ctx, "s")
	require.NoError(t, err)
	_, _, err = app.Sessions.Click(ctx, "s", "items-screen")
	require.NoError(t, err)

	assert.Equal(t, []string{"items-screen"}, clicks)
	handler, err := app.HTTPHandler()
	require.NoError(t, err)
	assert.NotNil(t, handler)
	assert.NotNil(t, app.MCPServer().MCPServer())
}

type swappableCatalog struct {
	*memory.Catalog
	next []domain.CatalogEntry
}

func (c *swappableCatalog) Reload(context.Context) error {
	c.Catalog = memory.NewCatalog(c.next...)
	return nil
}

func TestApp_ReloadCatalog(t *testing.T) {
	catalog := &swappableCatalog{
		Catalog: memory.NewCatalog(domain.CatalogEntry{ItemID: "1122", UnitValueCents: 1000}),
		next:    []domain.CatalogEntry{{ItemID: "1122", UnitValueCents: 1500}},
	}
	app := newApp(t, qret.DefaultConfig(), qret.WithCatalog(catalog))
	ctx := context.Background()

	_, err := app.Sessions.Start(ctx, "s")
	require.NoError(t, err)
	_, err = app.Sessions.SetQuantity(ctx, "s", "1122", 1)
	require.NoError(t, err)
	sum, err := app.Sessions.Refund(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, int64(1000), sum.TotalValueCents)

	reloaded, err := app.ReloadCatalog(ctx)
	require.NoError(t, err)
	assert.True(t, reloaded)

	sum, err = app.Sessions.Refund(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), sum.TotalValueCents, "derivation follows the new catalog version")

	static := newApp(t, qret.DefaultConfig())
	reloaded, err = static.ReloadCatalog(ctx)
	require.NoError(t, err)
	assert.False(t, reloaded)
}
