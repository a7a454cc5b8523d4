package conn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pacujo/goaten"
)

func newConnTestDisk(t *testing.T) *goaten.Disk {
	t.Helper()
	d, err := goaten.NewDisk()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}
