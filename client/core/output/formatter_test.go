package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/bounty/internal/core/bounty"
	"github.com/weisyn/bounty/pkg/types"
)

func sampleBounties() []*types.Bounty {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*types.Bounty{
		{
			Metadata: types.BountyMetadata{
				ContractID: 1001, Title: "Fix login", Difficulty: types.DifficultyEasy,
				Reward: 2_500_000, CreatorAddress: "CREATORADDRESSLONGVALUE", CreatedAt: created,
			},
			OnChain:     &types.OnChainBountyInfo{ContractID: 1001, Creator: "CREATORADDRESSLONGVALUE", Amount: 2_500_000, Status: types.StatusClaimed, Worker: "W"},
			StatusKnown: true,
		},
		{
			Metadata:  types.BountyMetadata{ContractID: 1002, Title: "Docs", Reward: 1_000_000, CreatedAt: created},
			ReadError: "network unavailable",
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)
	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestFormatter_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable, &buf).Print(BountyTable(sampleBounties())))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[2], "In Progress")
	assert.Contains(t, lines[2], "2.5")
	assert.Contains(t, lines[2], "CREATO…GVALUE")
	assert.Contains(t, lines[3], "Unknown", "不可读的链上状态不显示为 Open")
}

func TestFormatter_JSONUsesData(t *testing.T) {
	var buf bytes.Buffer
	bounties := sampleBounties()
	require.NoError(t, NewFormatter(FormatJSON, &buf).Print(BountyTable(bounties)))

	var decoded []*types.Bounty
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, types.ContractID(1001), decoded[0].Metadata.ContractID)
	assert.False(t, decoded[1].StatusKnown)

	buf.Reset()
	require.NoError(t, NewFormatter(FormatPretty, &buf).Print(BountyFields(bounties[0])))
	assert.Contains(t, buf.String(), "\n  \"metadata\"")
}

func TestFormatter_TextFields(t *testing.T) {
	var buf bytes.Buffer
	r := &bounty.Result{Action: types.ActionClaim, ContractID: 7, TxID: "TX1", Reconciled: true,
		State: &types.OnChainBountyInfo{Status: types.StatusClaimed, Amount: 1_000_000}}
	require.NoError(t, NewFormatter(FormatText, &buf).Print(ResultFields(r)))
	out := buf.String()
	assert.Contains(t, out, "Action: claim\n")
	assert.Contains(t, out, "Contract: 7\n")
	assert.Contains(t, out, "Status: In Progress\n")
	assert.Contains(t, out, "re-reading")

	buf.Reset()
	require.NoError(t, NewFormatter(FormatText, &buf).Print(ResultFields(&bounty.Result{Action: types.ActionCancel, Cancelled: true})))
	assert.Contains(t, buf.String(), "signing cancelled")
}

func TestFormatter_SubmissionsAndMessages(t *testing.T) {
	var buf, logs bytes.Buffer
	f := NewFormatter(FormatTable, &buf)
	f.SetLogWriter(&logs)

	subs := []*types.Submission{{ID: "sub-1", SubmitterAddress: "W", Status: types.SubmissionPending, Content: strings.Repeat("x", 100)}}
	require.NoError(t, f.Print(SubmissionTable(subs)))
	assert.Contains(t, buf.String(), "sub-1")
	assert.Contains(t, buf.String(), "…")

	f.PrintSuccess("done")
	f.SetSilent(true)
	f.PrintInfo("hidden")
	f.PrintError(errors.New("boom"))
	assert.Contains(t, logs.String(), "done")
	assert.NotContains(t, logs.String(), "hidden")
	assert.Contains(t, logs.String(), "boom")

	buf.Reset()
	require.NoError(t, f.Print(BountyTable(nil)))
	assert.Empty(t, buf.String())
}
