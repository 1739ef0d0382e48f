package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"revizor/internal/pg"
)

// Интеграционный сценарий на живом Postgres: отражение схемы,
// синтез моделей и CRUD через Store, включая составной ключ.
// go test -short пропускает.

const integrationDDL = `
create type booking_status as enum ('new', 'paid', 'cancelled');

create table users (
    id bigint primary key
);

create table booking (
    code       varchar(32) primary key,
    title      varchar(100) not null,
    user_id    bigint references users (id),
    status     booking_status not null,
    is_active  boolean not null default true,
    created_at timestamptz not null default now(),
    payload    json
);

create table order_item (
    order_id bigint,
    item_no  integer,
    qty      integer not null,
    note     text,
    primary key (order_id, item_no)
);
`

func TestIntegrationPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, needs docker")
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("revizor"),
		tcpostgres.WithUsername("revizor"),
		tcpostgres.WithPassword("revizor"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := pg.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(ctx, integrationDDL)
	require.NoError(t, err)

	// отражение и синтез
	reg := NewRegistry()
	n, issues, err := BuildRegistry(ctx, db, ReloadConfig{Schema: "public"}, reg)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, 3, n)

	store := NewStore(db)
	booking := entryFor(t, reg, "Booking")
	orderItem := entryFor(t, reg, "OrderItem")

	_, err = db.ExecContext(ctx, `insert into users (id) values (42)`)
	require.NoError(t, err)

	t.Run("insert generates string pk", func(t *testing.T) {
		rec, err := store.Insert(ctx, booking, map[string]any{
			"title":   "Каюта 7",
			"user_id": int64(42),
			"status":  "new",
			"payload": `{"deck": 2}`,
		})
		require.NoError(t, err)

		code, ok := rec["code"].(string)
		require.True(t, ok)
		assert.Len(t, code, 26) // ULID
		assert.Equal(t, map[string]any{"deck": float64(2)}, rec["payload"])

		got, err := store.Get(ctx, booking, code)
		require.NoError(t, err)
		assert.Equal(t, "Каюта 7", got["title"])
		assert.Equal(t, int64(42), got["user"])

		upd, err := store.Update(ctx, booking, code, map[string]any{"status": "paid"})
		require.NoError(t, err)
		assert.Equal(t, "paid", upd["status"])
	})

	t.Run("list with filter", func(t *testing.T) {
		for _, code := range []string{"A1", "A2"} {
			_, err := store.Insert(ctx, booking, map[string]any{
				"code": code, "title": "x", "status": "cancelled",
			})
			require.NoError(t, err)
		}

		lp := ListParams{Limit: 50, Nulls: "last",
			Filters: map[string][]string{"status": {"cancelled"}}}
		recs, total, err := store.List(ctx, booking, lp)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, recs, 2)
	})

	t.Run("composite key round trip", func(t *testing.T) {
		for _, itemNo := range []int64{1, 2} {
			_, err := store.Insert(ctx, orderItem, map[string]any{
				"order_id": int64(7), "item_no": itemNo, "qty": int64(3),
			})
			require.NoError(t, err)
		}

		lp := ListParams{Limit: 50, Nulls: "last"}
		recs, total, err := store.List(ctx, orderItem, lp)
		require.NoError(t, err)
		require.Equal(t, 2, total)

		// синтетический id каждой строки читается обратно той же строкой
		token := recs[1]["id"].(string)
		got, err := store.Get(ctx, orderItem, token)
		require.NoError(t, err)
		assert.Equal(t, recs[1]["item_no"], got["item_no"])

		// удаляется ровно одна строка — та, чей ключ совпал целиком
		deleted, err := store.Delete(ctx, orderItem, token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, total, err = store.List(ctx, orderItem, lp)
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		_, err = store.Get(ctx, orderItem, token)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("reload over http", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `create table late_arrival (id bigint primary key)`)
		require.NoError(t, err)

		r := NewRouter(reg, store, db, ReloadConfig{Schema: "public"})
		w := doJSON(r, http.MethodPost, "/admin/_reload", "")
		require.Equal(t, http.StatusOK, w.Code)

		_, ok := reg.Lookup("late_arrival")
		assert.True(t, ok)
	})
}
