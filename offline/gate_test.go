package offline_test

import (
	"testing"

	"github.com/mmdatafocus/warehouse_client/offline"
)

type stubOracle struct {
	offline bool
}

func (s *stubOracle) IsOfflineNow() bool { return s.offline }

func TestGateQueuesGatedRoutesOnlyWhileOffline(t *testing.T) {
	gate := offline.NewGate(&stubOracle{offline: true})

	cases := []struct {
		method string
		url    string
		want   bool
	}{
		{"POST", "/goods-receipts", true},
		{"POST", "/goods-receipts/-3/items", true},
		{"POST", "/goods-receipts/-3/complete", true},
		{"DELETE", "/goods-receipts/5", true},
		{"POST", "/goods-issues", true},
		{"PUT", "/stock-transfers/2", true},
		{"GET", "/goods-receipts", false},
		{"POST", "/products", false},
		{"POST", "/auth/login", false},
	}
	for _, tc := range cases {
		if got := gate.ShouldQueueOfflineMutation(tc.method, tc.url); got != tc.want {
			t.Errorf("ShouldQueueOfflineMutation(%s %s) = %v, want %v", tc.method, tc.url, got, tc.want)
		}
	}
}

func TestGateDispatchesDirectlyWhileOnline(t *testing.T) {
	gate := offline.NewGate(&stubOracle{offline: false})
	if gate.ShouldQueueOfflineMutation("POST", "/goods-receipts") {
		t.Error("expected direct dispatch while online")
	}
}

func TestGateHonorsDocNarrowing(t *testing.T) {
	t.Setenv("OFFLINE_QUEUE_DOCS", "GOODS_ISSUE")
	gate := offline.NewGate(&stubOracle{offline: true})

	if gate.ShouldQueueOfflineMutation("POST", "/goods-receipts") {
		t.Error("goods receipts excluded by OFFLINE_QUEUE_DOCS, should not queue")
	}
	if !gate.ShouldQueueOfflineMutation("POST", "/goods-issues") {
		t.Error("goods issues included by OFFLINE_QUEUE_DOCS, should queue")
	}
}

func TestGateForceQueueOverridesOracle(t *testing.T) {
	t.Setenv("OFFLINE_FORCE_QUEUE", "true")
	gate := offline.NewGate(&stubOracle{offline: false})

	if !gate.ShouldQueueOfflineMutation("POST", "/stock-transfers") {
		t.Error("OFFLINE_FORCE_QUEUE set, gated route should queue while online")
	}
	if gate.ShouldQueueOfflineMutation("GET", "/stock-transfers") {
		t.Error("force queue must not widen the route set to reads")
	}
}
