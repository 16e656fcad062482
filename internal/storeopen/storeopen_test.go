package storeopen

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lovecontract/internal/config"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/store"
	"github.com/matzehuels/lovecontract/pkg/store/storetest"
)

func TestOpenLocalDrivers(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg := config.StoreConfig{Driver: driver, RetryAttempts: 2, RetryDelay: time.Millisecond}
			switch driver {
			case config.DriverFile:
				cfg.Path = t.TempDir()
			case config.DriverSQLite:
				cfg.Path = filepath.Join(t.TempDir(), "contract.db")
			}

			s, err := Open(context.Background(), cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })

			ctx := context.Background()
			at := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
			require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotA, storetest.Blob, at))

			doc, err := s.Read(ctx, contract.DocumentID)
			require.NoError(t, err)
			assert.True(t, doc.Signed(contract.SlotA))
			assert.False(t, doc.Signed(contract.SlotB))
		})
	}
}

func TestOpenMissingRecord(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Read(context.Background(), contract.DocumentID)
	assert.True(t, store.IsNotFound(err))
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "etcd"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeStore))

	_, err = Open(context.Background(), config.StoreConfig{Driver: config.DriverRedis, URL: "not a url"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeStore))
}
