//go:build integration
// +build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// testCacheCluster manages embedded Olric nodes that form one cluster
// on the loopback interface. Each node gets its own Olric and gossip
// ports so multiple nodes can share a host.
type testCacheCluster struct {
	t     *testing.T
	dmap  string
	nodes []*olricCache
	peers []string
}

func newTestCacheCluster(t *testing.T) *testCacheCluster {
	t.Helper()
	return &testCacheCluster{
		t:    t,
		dmap: fmt.Sprintf("cluster-dmap-%d", getNextPort()),
	}
}

// addMember starts a new embedded node joined to the existing members.
func (tc *testCacheCluster) addMember() *olricCache {
	tc.t.Helper()

	olricPort := getNextPort()
	gossipPort := getNextPort()
	cfg := OlricConfig{
		DMapName:          tc.dmap,
		Embedded:          true,
		BindAddr:          fmt.Sprintf("127.0.0.1:%d", olricPort),
		MemberlistAddr:    fmt.Sprintf("127.0.0.1:%d", gossipPort),
		Peers:             append([]string(nil), tc.peers...),
		ReplicaCount:      2,
		MemberCountQuorum: 1,
		LeaveTimeout:      2 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	node, err := newOlricCache(ctx, &cfg)
	if err != nil {
		tc.t.Fatalf("failed to start cluster member: %v", err)
	}

	tc.nodes = append(tc.nodes, node)
	tc.peers = append(tc.peers, cfg.MemberlistAddr)

	tc.t.Cleanup(func() {
		node.Close()
	})

	return node
}

// removeMember closes the node at index i and forgets its gossip address.
func (tc *testCacheCluster) removeMember(i int) {
	tc.t.Helper()

	if i < 0 || i >= len(tc.nodes) {
		tc.t.Fatalf("removeMember(%d): no such member", i)
	}
	if err := tc.nodes[i].Close(); err != nil {
		tc.t.Logf("member %d close error: %v", i, err)
	}
	tc.nodes = append(tc.nodes[:i], tc.nodes[i+1:]...)
	tc.peers = append(tc.peers[:i], tc.peers[i+1:]...)
}

// waitForConvergence polls until every node reports want members.
func (tc *testCacheCluster) waitForConvergence(want int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		converged := true
		for _, node := range tc.nodes {
			if node.ClusterMembers() != want {
				converged = false
				break
			}
		}
		if converged {
			return nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return fmt.Errorf("cluster did not converge to %d members within %v", want, timeout)
}
