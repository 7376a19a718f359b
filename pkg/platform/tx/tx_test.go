package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPick(t *testing.T) {
	db := &sql.DB{}

	t.Run("no transaction falls back to the database", func(t *testing.T) {
		_, ok := From(context.Background())
		assert.False(t, ok)
		assert.Same(t, db, Pick(context.Background(), db))
	})

	t.Run("nil transaction leaves the context alone", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, ctx, WithTx(ctx, nil))
	})

	t.Run("carried transaction wins", func(t *testing.T) {
		sqlTx := &sql.Tx{}
		ctx := WithTx(context.Background(), sqlTx)

		got, ok := From(ctx)
		require.True(t, ok)
		assert.Same(t, sqlTx, got)
		assert.Same(t, sqlTx, Pick(ctx, db))
	})
}
