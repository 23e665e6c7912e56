package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adjanitor/auditlog"
	"adjanitor/lifecycle"
)

func newReaper(dir *fakeDirectory, audit *auditlog.MemorySink) *lifecycle.Reaper {
	return &lifecycle.Reaper{
		Directory:      dir,
		QuarantinePath: quarantine,
		RetentionDays:  90,
		Audit:          audit,
		Now:            fixedClock,
	}
}

func TestReaperInclusiveRetentionBoundary(t *testing.T) {
	dir := newFakeDirectory()
	dir.add(lifecycle.MachineAccount{
		Name:        "OLD",
		DN:          "CN=OLD," + quarantine,
		LastChanged: testNow.AddDate(0, 0, -90),
	})
	dir.add(lifecycle.MachineAccount{
		Name:        "ALMOST",
		DN:          "CN=ALMOST," + quarantine,
		LastChanged: testNow.AddDate(0, 0, -89),
	})

	audit := auditlog.NewMemorySink()
	deleted, failed, err := newReaper(dir, audit).Reap(context.Background())
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Equal(t, []string{"OLD"}, deleted)
	assert.Nil(t, dir.find("OLD"))
	assert.NotNil(t, dir.find("ALMOST"))
}

func TestReaperTruncatesPartialDays(t *testing.T) {
	dir := newFakeDirectory()
	// 89 days and 20 hours old: still 89 whole days, not yet eligible.
	dir.add(lifecycle.MachineAccount{
		Name:        "PARTIAL",
		DN:          "CN=PARTIAL," + quarantine,
		LastChanged: testNow.AddDate(0, 0, -89).Add(-20 * time.Hour),
	})

	deleted, _, err := newReaper(dir, auditlog.NewMemorySink()).Reap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestReaperSkipsEnabledAccounts(t *testing.T) {
	dir := newFakeDirectory()
	dir.add(lifecycle.MachineAccount{
		Name:        "DRIFTED",
		DN:          "CN=DRIFTED," + quarantine,
		Enabled:     true,
		LastChanged: testNow.AddDate(0, 0, -400),
	})

	deleted, _, err := newReaper(dir, auditlog.NewMemorySink()).Reap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.NotNil(t, dir.find("DRIFTED"))
}

func TestReaperDeletesChildObjects(t *testing.T) {
	dir := newFakeDirectory()
	dir.add(lifecycle.MachineAccount{
		Name:        "HOST01",
		DN:          "CN=HOST01," + quarantine,
		LastChanged: testNow.AddDate(0, 0, -120),
	})
	dir.children["HOST01"] = []string{"CN=RemoteDesktop,CN=HOST01," + quarantine}

	deleted, _, err := newReaper(dir, auditlog.NewMemorySink()).Reap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"HOST01"}, deleted)
	assert.Equal(t, []string{"CN=RemoteDesktop,CN=HOST01," + quarantine}, dir.deletedChildren)
}

func TestReaperContinuesPastDeleteFailure(t *testing.T) {
	dir := newFakeDirectory()
	dir.add(lifecycle.MachineAccount{
		Name:        "STUCK",
		DN:          "CN=STUCK," + quarantine,
		LastChanged: testNow.AddDate(0, 0, -100),
	})
	dir.add(lifecycle.MachineAccount{
		Name:        "GONE",
		DN:          "CN=GONE," + quarantine,
		LastChanged: testNow.AddDate(0, 0, -100),
	})
	dir.deleteErr["STUCK"] = errors.New("protected object")

	audit := auditlog.NewMemorySink()
	deleted, failed, err := newReaper(dir, audit).Reap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"GONE"}, deleted)
	// STUCK stays in quarantine for the next sweep to retry.
	assert.NotNil(t, dir.find("STUCK"))
	assert.Equal(t, 1, auditContains(t, audit, "failed to delete STUCK"))
	assert.Equal(t, 1, auditContains(t, audit, "deleted accounts past 90 day retention: GONE"))
}

func TestReaperEmptyQuarantineLogsOneLine(t *testing.T) {
	audit := auditlog.NewMemorySink()
	deleted, _, err := newReaper(newFakeDirectory(), audit).Reap(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deleted)
	require.Len(t, audit.Entries(), 1)
	assert.Contains(t, audit.Entries()[0], "no quarantined machine accounts past retention")
}

func TestAgeInDays(t *testing.T) {
	cases := []struct {
		name string
		then time.Time
		want int
	}{
		{"exactly ninety days", testNow.AddDate(0, 0, -90), 90},
		{"partial day truncates", testNow.AddDate(0, 0, -90).Add(time.Hour), 89},
		{"future change", testNow.Add(time.Hour), 0},
		{"never changed", time.Time{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, lifecycle.AgeInDays(testNow, tc.then))
		})
	}
}
