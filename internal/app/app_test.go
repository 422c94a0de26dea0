package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/bounty/internal/core/bounty"
	"github.com/weisyn/bounty/internal/core/bounty/bountytest"
	"github.com/weisyn/bounty/pkg/types"
)

func testConfig(dir string) *types.AppConfig {
	endpoint := "http://127.0.0.1:4001"
	return &types.AppConfig{
		DataDir: &dir,
		Ledger:  &types.UserLedgerConfig{Endpoint: &endpoint},
	}
}

func TestStart_WiresSession(t *testing.T) {
	dir := t.TempDir()
	ledger := bountytest.NewFakeLedger()

	session, err := Start(WithAppConfig(testConfig(dir)), WithLedger(ledger))
	require.NoError(t, err)
	defer session.Stop()

	require.NotNil(t, session.Coordinator)
	require.NotNil(t, session.Watcher)
	assert.Equal(t, dir, session.Provider.GetDataRoot())
	assert.Equal(t, "http://127.0.0.1:4001", session.Provider.GetLedger().Endpoint)

	ctx := context.Background()
	creator := bountytest.NewSigner("CREATOR")
	worker := bountytest.NewSigner("WORKER")

	created, err := session.Coordinator.CreateBounty(ctx, bounty.CreateRequest{Title: "Fix login", Reward: 5_000_000}, creator)
	require.NoError(t, err)
	require.False(t, created.Cancelled)

	claimed, err := session.Coordinator.Claim(ctx, created.ContractID, worker)
	require.NoError(t, err)
	assert.Equal(t, types.StatusClaimed, claimed.State.Status)

	n, err := testutil.GatherAndCount(session.Registry, "bounty_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "create 与 claim 各一条序列")

	require.NoError(t, session.Stop())
	require.NoError(t, session.Stop(), "重复停止无副作用")
}

func TestStart_MetadataSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ledger := bountytest.NewFakeLedger()
	ctx := context.Background()

	first, err := Start(WithAppConfig(testConfig(dir)), WithLedger(ledger))
	require.NoError(t, err)
	created, err := first.Coordinator.CreateBounty(ctx, bounty.CreateRequest{Title: "Write docs", Reward: 1_000_000}, bountytest.NewSigner("CREATOR"))
	require.NoError(t, err)
	require.NoError(t, first.Stop())

	second, err := Start(WithAppConfig(testConfig(dir)), WithLedger(ledger))
	require.NoError(t, err)
	defer second.Stop()

	list, err := second.Coordinator.ListBounties(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ContractID, list[0].Metadata.ContractID)
	assert.Equal(t, "Write docs", list[0].Metadata.Title)
	assert.True(t, list[0].StatusKnown)
}

func TestStart_DefaultLedgerIsLazy(t *testing.T) {
	// 未替换账本时装配 JSON-RPC 网关，启动阶段不访问节点
	session, err := Start(WithAppConfig(testConfig(t.TempDir())))
	require.NoError(t, err)
	assert.NoError(t, session.Stop())
}
