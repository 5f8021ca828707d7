package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type scopeRow struct {
	ID    string `gorm:"column:id;primaryKey"`
	Value int    `gorm:"column:value"`
}

func (scopeRow) TableName() string { return "scope_rows" }

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(&scopeRow{}))
	return conn
}

func TestScopeCommitsOnSuccess(t *testing.T) {
	conn := openTestDB(t)
	scope := NewScope(conn)

	err := scope.Within(context.Background(), "creator:1", func(ctx context.Context) error {
		return Conn(ctx, conn).Create(&scopeRow{ID: "a", Value: 1}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&scopeRow{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestScopeRollsBackOnError(t *testing.T) {
	conn := openTestDB(t)
	scope := NewScope(conn)
	failure := errors.New("wallet missing")

	err := scope.Within(context.Background(), "creator:1", func(ctx context.Context) error {
		if err := Conn(ctx, conn).Create(&scopeRow{ID: "a", Value: 1}).Error; err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	var count int64
	require.NoError(t, conn.Model(&scopeRow{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestScopeReusesTransactionForHeldKey(t *testing.T) {
	conn := openTestDB(t)
	scope := NewScope(conn)

	err := scope.Within(context.Background(), "creator:1", func(ctx context.Context) error {
		if err := Conn(ctx, conn).Create(&scopeRow{ID: "a", Value: 1}).Error; err != nil {
			return err
		}
		return scope.Within(ctx, "creator:1", func(inner context.Context) error {
			var row scopeRow
			return Conn(inner, conn).Where("id = ?", "a").First(&row).Error
		})
	})
	require.NoError(t, err)
}
