//go:build integration

package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/matzehuels/lovecontract/pkg/store"
	"github.com/matzehuels/lovecontract/pkg/store/storetest"
)

func TestConformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(ctx, uri, "lovecontract_test")
		require.NoError(t, err)
		require.NoError(t, s.coll.Drop(ctx))
		return s
	})
}
