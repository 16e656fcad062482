package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/observability"
)

func TestStoreHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnOperation(ctx, "upsert_signature", "A", 3*time.Millisecond, nil)
	m.OnOperation(ctx, "upsert_signature", "A", time.Millisecond, errors.New(errors.ErrCodeStore, "down"))
	m.OnOperation(ctx, "read", "", time.Millisecond, io.EOF)
	m.OnRetry(ctx, "read", 1, io.EOF)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("upsert_signature", "A", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("upsert_signature", "A", "STORE_ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues("read", "", "INTERNAL_ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreRetries.WithLabelValues("read")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StoreDuration))
}

func TestCodecAndSessionHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnEncode(ctx, 120, time.Millisecond, nil)
	m.OnDecode(ctx, "image/png", 120, time.Millisecond, nil)
	m.OnDecode(ctx, "", 4, time.Millisecond, errors.New(errors.ErrCodeDecode, "bad"))

	m.OnSessionOpen(ctx)
	m.OnSessionOpen(ctx)
	m.OnSessionClose(ctx)
	m.OnSignatureSaved(ctx, "B")
	m.OnPersistFailure(ctx, "accept", "", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlobsEncoded.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlobsDecoded.WithLabelValues("image/png", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlobsDecoded.WithLabelValues("unknown", "DECODE_ERROR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignaturesSaved.WithLabelValues("B")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures.WithLabelValues("accept", "", "true")))
}

func TestInstall(t *testing.T) {
	t.Cleanup(observability.Reset)
	m := New()
	m.Install()

	observability.Session().OnSignatureSaved(context.Background(), "A")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignaturesSaved.WithLabelValues("A")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/contract", http.MethodGet, http.StatusOK, time.Millisecond)
	m.ObserveHTTP("", http.MethodGet, http.StatusNotFound, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `lovecontract_http_requests_total{method="GET",route="/api/contract",status="2xx"} 1`), body)
	assert.Contains(t, body, `route="unmatched"`)
	assert.Contains(t, body, "go_goroutines")
}
