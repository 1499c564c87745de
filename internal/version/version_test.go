package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyBuildInfo_PrefersModuleVersion(t *testing.T) {
	origVersion, origRevision, origDate := Version, Revision, BuildDate
	t.Cleanup(func() {
		Version, Revision, BuildDate = origVersion, origRevision, origDate
	})

	Version = "0.2.0-dev"
	Revision = "HEAD"
	BuildDate = ""

	applyBuildInfo("v1.4.2", map[string]string{
		"vcs.revision": "abc1234",
		"vcs.modified": "true",
		"vcs.time":     "2026-01-02T03:04:05Z",
	})

	assert.Equal(t, "1.4.2", Version)
	assert.Equal(t, "abc1234-dirty", Revision)
	assert.Equal(t, "2026-01-02T03:04:05Z", BuildDate)
}

func TestShort_ContainsVersionAndRevision(t *testing.T) {
	s := Short()
	assert.Contains(t, s, Version)
	assert.Contains(t, s, Revision)
}
