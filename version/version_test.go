package version_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partsplug/storefront/version"
)

func TestString(t *testing.T) {
	oldVersion, oldCommit, oldDate := version.Version, version.Commit, version.Date
	t.Cleanup(func() { version.Version, version.Commit, version.Date = oldVersion, oldCommit, oldDate })

	version.Version, version.Commit, version.Date = "", "", ""
	require.NotEmpty(t, version.Current())

	version.Version = "v1.4.0"
	require.Equal(t, "v1.4.0", version.String())

	version.Commit = "abc123"
	version.Date = "2026-10-01"
	require.Equal(t, "v1.4.0 (abc123) built 2026-10-01", version.String())
}
