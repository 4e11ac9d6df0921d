package realtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionSubscribeLoadsInitialSnapshot(t *testing.T) {
	hub := NewHub(testLogger())
	fetch := func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.Equal(t, StateUnsubscribed, c.State())

	require.NoError(t, c.Subscribe(context.Background()))
	defer c.Unsubscribe()

	assert.Equal(t, StateSubscribed, c.State())
	assert.Equal(t, []string{"a", "b"}, c.Snapshot())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, hub.SubscriberCount("company-1", "leads"))
}

func TestCollectionSubscribeIdempotent(t *testing.T) {
	hub := NewHub(testLogger())
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a"}, nil
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.NoError(t, c.Subscribe(context.Background()))
	defer c.Unsubscribe()

	require.NoError(t, c.Subscribe(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, hub.SubscriberCount("company-1", "leads"))
}

func TestCollectionRefetchesOnNotification(t *testing.T) {
	hub := NewHub(testLogger())
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"v1"}, nil
		}
		return []string{"v1", "v2"}, nil
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.NoError(t, c.Subscribe(context.Background()))
	defer c.Unsubscribe()
	require.Equal(t, []string{"v1"}, c.Snapshot())

	hub.Dispatch(Notification{Table: "leads", Action: "created", CompanyID: "company-1", RecordID: "v2"})

	require.Eventually(t, func() bool {
		return c.Len() == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"v1", "v2"}, c.Snapshot())
	assert.Equal(t, StateSubscribed, c.State())
	assert.False(t, c.IsUpdating())
}

func TestCollectionIgnoresOtherCompanies(t *testing.T) {
	hub := NewHub(testLogger())
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a"}, nil
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.NoError(t, c.Subscribe(context.Background()))
	defer c.Unsubscribe()

	hub.Dispatch(Notification{Table: "leads", Action: "created", CompanyID: "company-2", RecordID: "x"})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCollectionStalePreserveOnFetchError(t *testing.T) {
	hub := NewHub(testLogger())
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"good"}, nil
		}
		return nil, assert.AnError
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.NoError(t, c.Subscribe(context.Background()))
	defer c.Unsubscribe()
	require.Equal(t, []string{"good"}, c.Snapshot())

	hub.Dispatch(Notification{Table: "leads", Action: "updated", CompanyID: "company-1", RecordID: "x"})

	require.Eventually(t, func() bool {
		return calls.Load() >= 2 && !c.IsUpdating()
	}, 2*time.Second, 10*time.Millisecond)

	// Last-good snapshot survives the failed refetch
	assert.Equal(t, []string{"good"}, c.Snapshot())
	assert.Equal(t, StateSubscribed, c.State())
}

func TestCollectionLastWriterWins(t *testing.T) {
	hub := NewHub(testLogger())
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			close(firstStarted)
			<-release
			return []string{"v1"}, nil
		}
		return []string{"v2"}, nil
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())

	// First fetch claims its epoch, then stalls mid-flight.
	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	<-firstStarted

	// Second fetch starts later and completes first.
	require.NoError(t, c.Refresh(context.Background()))
	require.Equal(t, []string{"v2"}, c.Snapshot())

	// The stalled first fetch now completes; its result is older and
	// must not overwrite the newer snapshot.
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"v2"}, c.Snapshot())
}

func TestCollectionOverlappingRefetchesKeepUpdating(t *testing.T) {
	hub := NewHub(testLogger())
	fetch := func(ctx context.Context) ([]string, error) {
		return []string{"a"}, nil
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.NoError(t, c.Subscribe(context.Background()))
	defer c.Unsubscribe()
	require.False(t, c.IsUpdating())

	// Two notifications arrive before either refetch lands.
	c.markRefreshing()
	c.markRefreshing()
	require.True(t, c.IsUpdating())
	require.Equal(t, StateRefreshing, c.State())

	// The first completion must not clear the flag while the second
	// fetch is still in flight.
	c.clearRefreshing()
	assert.True(t, c.IsUpdating())
	assert.Equal(t, StateRefreshing, c.State())

	c.clearRefreshing()
	assert.False(t, c.IsUpdating())
	assert.Equal(t, StateSubscribed, c.State())

	// A spurious extra completion does not flip the flag back on.
	c.clearRefreshing()
	assert.False(t, c.IsUpdating())
	assert.Equal(t, StateSubscribed, c.State())
}

func TestCollectionInitialFetchErrorStaysSubscribed(t *testing.T) {
	hub := NewHub(testLogger())
	var calls atomic.Int32
	fetch := func(ctx context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return nil, assert.AnError
		}
		return []string{"recovered"}, nil
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.NoError(t, c.Subscribe(context.Background()))
	defer c.Unsubscribe()

	assert.Equal(t, StateSubscribed, c.State())
	assert.Equal(t, 0, c.Len())

	// The next change notification heals the snapshot
	hub.Dispatch(Notification{Table: "leads", Action: "created", CompanyID: "company-1", RecordID: "x"})
	require.Eventually(t, func() bool {
		return c.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"recovered"}, c.Snapshot())
}

func TestCollectionUnsubscribe(t *testing.T) {
	hub := NewHub(testLogger())
	fetch := func(ctx context.Context) ([]string, error) {
		return []string{"a"}, nil
	}

	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.NoError(t, c.Subscribe(context.Background()))
	require.Equal(t, 1, hub.SubscriberCount("company-1", "leads"))

	c.Unsubscribe()
	assert.Equal(t, StateUnsubscribed, c.State())
	assert.Equal(t, 0, hub.SubscriberCount("company-1", "leads"))

	// Idempotent
	c.Unsubscribe()
	assert.Equal(t, StateUnsubscribed, c.State())

	// Resubscribing after a full teardown works
	require.NoError(t, c.Subscribe(context.Background()))
	defer c.Unsubscribe()
	assert.Equal(t, StateSubscribed, c.State())
	assert.Equal(t, 1, hub.SubscriberCount("company-1", "leads"))
}

func TestCollectionUnsubscribesOnContextCancel(t *testing.T) {
	hub := NewHub(testLogger())
	fetch := func(ctx context.Context) ([]string, error) {
		return []string{"a"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := NewCollection[string]("company-1", "leads", fetch, hub, testLogger())
	require.NoError(t, c.Subscribe(ctx))

	cancel()
	require.Eventually(t, func() bool {
		return c.State() == StateUnsubscribed && hub.SubscriberCount("company-1", "leads") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unsubscribed", StateUnsubscribed.String())
	assert.Equal(t, "subscribing", StateSubscribing.String())
	assert.Equal(t, "subscribed", StateSubscribed.String())
	assert.Equal(t, "refreshing", StateRefreshing.String())
	assert.Equal(t, "unknown", State(99).String())
}
