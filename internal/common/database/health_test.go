package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-advisor/internal/common/config"
)

type stubPinger struct {
	name  string
	err   error
	block bool
}

func (p stubPinger) Name() string { return p.name }

func (p stubPinger) Ping(ctx context.Context) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.err
}

func TestCheckAll(t *testing.T) {
	tests := []struct {
		name     string
		deps     []Pinger
		wantKeys []string
	}{
		{name: "no dependencies", deps: nil, wantKeys: nil},
		{name: "all healthy", deps: []Pinger{stubPinger{name: "postgres"}, stubPinger{name: "redis"}}, wantKeys: nil},
		{name: "nil dependency skipped", deps: []Pinger{nil, stubPinger{name: "redis"}}, wantKeys: nil},
		{
			name:     "failure reported by name",
			deps:     []Pinger{stubPinger{name: "postgres"}, stubPinger{name: "redis", err: errors.New("connection refused")}},
			wantKeys: []string{"redis"},
		},
		{
			name:     "slow dependency times out",
			deps:     []Pinger{stubPinger{name: "elasticsearch", block: true}},
			wantKeys: []string{"elasticsearch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := CheckAll(context.Background(), 20*time.Millisecond, tt.deps...)

			keys := make([]string, 0, len(failures))
			for k := range failures {
				keys = append(keys, k)
			}
			if tt.wantKeys == nil {
				assert.Empty(t, failures)
				return
			}
			assert.ElementsMatch(t, tt.wantKeys, keys)
		})
	}
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "redis", client.Name())
	assert.NoError(t, client.Ping(context.Background()))

	_, err = NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	client := &PostgresClient{DB: db}
	mock.ExpectPing().WillReturnError(errors.New("server closed"))

	err = client.Ping(context.Background())

	require.Error(t, err)
	assert.Equal(t, "postgres", client.Name())
	assert.NoError(t, mock.ExpectationsWereMet())
}
