package status

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/bounty/internal/core/bounty"
	"github.com/weisyn/bounty/internal/core/infrastructure/log"
	"github.com/weisyn/bounty/pkg/types"
)

type fakeWatch []types.ContractID

func (f fakeWatch) Watched() []types.ContractID { return f }

type fakeSnapshots map[types.ContractID]*bounty.Snapshot

func (f fakeSnapshots) Snapshot(ctx context.Context, id types.ContractID) (*bounty.Snapshot, bool) {
	s, ok := f[id]
	return s, ok
}

func newTestServer() *Server {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	snaps := fakeSnapshots{
		7: {ContractID: 7, State: &types.OnChainBountyInfo{ContractID: 7, Status: types.StatusClaimed}, Confirmed: true},
	}
	return NewServer("127.0.0.1:0", registry, fakeWatch{7, 8}, snaps, log.NewNop())
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	h := newTestServer().Handler()

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"watched":2`)

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_total 1")

	rec = get(t, h, "/bounties")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Bounties []bounty.Snapshot `json:"bounties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Bounties, 2)
	assert.Equal(t, types.StatusClaimed, list.Bounties[0].State.Status)
	assert.Nil(t, list.Bounties[1].State, "未观察到的赏金没有状态")

	rec = get(t, h, "/bounties/7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"confirmed":true`)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/bounties/9").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/bounties/abc").Code)
}

func TestStartStop(t *testing.T) {
	s := newTestServer()
	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "不能重复启动")

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
