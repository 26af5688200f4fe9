package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/types"
)

func TestCollector_RefreshesStoreGauges(t *testing.T) {
	ctx := context.Background()
	s, err := storage.OpenInMemory(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateImage(ctx, &types.Image{ID: "img-1", Digest: "sha256:x"}))
	require.NoError(t, s.CreateContainer(ctx, &types.Container{ID: "c1", Name: "c1", ImageID: "img-1", BundlePath: "/c1"}))
	require.NoError(t, s.CreateContainer(ctx, &types.Container{ID: "c2", Name: "c2", ImageID: "img-1", BundlePath: "/c2"}))
	pid := 7
	require.NoError(t, s.SetContainerState(ctx, "c2", types.StateRunning, &pid))
	require.NoError(t, s.CreateNetwork(ctx, &types.Network{ID: "n1", Name: "n1", Driver: "bridge"}))

	c := NewCollector(s)
	c.Collect()

	assert.Equal(t, 1.0, testutil.ToFloat64(ContainersTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ContainersTotal.WithLabelValues("running")))
	assert.Equal(t, 0.0, testutil.ToFloat64(ContainersTotal.WithLabelValues("stopped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ImagesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(NetworksTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(VolumesTotal))
}
