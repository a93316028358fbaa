package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnect_Error(t *testing.T) {
	cfg := Config{
		Driver:             "invalid",
		ConnectionString:   "invalid",
		MaxOpenConnections: 10,
		MaxIdleConnections: 5,
		ConnMaxLifetime:    time.Hour,
	}

	db, err := Connect(cfg)
	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "sql: unknown driver")
}

func TestRebind(t *testing.T) {
	t.Run("mysql passes through unchanged", func(t *testing.T) {
		query := "UPDATE customers SET email_token = ?, email = ? WHERE id = ?"
		assert.Equal(t, query, Rebind(DriverMySQL, query))
	})

	t.Run("postgres numbers placeholders", func(t *testing.T) {
		query := "UPDATE customers SET email_token = ?, email = ? WHERE id = ?"
		want := "UPDATE customers SET email_token = $1, email = $2 WHERE id = $3"
		assert.Equal(t, want, Rebind(DriverPostgres, query))
	})

	t.Run("no placeholders", func(t *testing.T) {
		query := "SELECT 1"
		assert.Equal(t, query, Rebind(DriverPostgres, query))
	})
}
