package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
)

func testLogger() *logger.Logger {
	return logger.New("test", "test")
}

// fakeBusConsumer records the wiring the hub performs against the bus.
type fakeBusConsumer struct {
	exchange     string
	routingKey   string
	handler      messaging.MessageHandler
	started      bool
	subscribeErr error
}

func (f *fakeBusConsumer) Subscribe(exchange, routingKeyPattern string) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.exchange = exchange
	f.routingKey = routingKeyPattern
	return nil
}

func (f *fakeBusConsumer) RegisterWildcardHandler(handler messaging.MessageHandler) {
	f.handler = handler
}

func (f *fakeBusConsumer) Start(ctx context.Context) error {
	f.started = true
	return nil
}

func TestHubConsumeBindsChangeExchange(t *testing.T) {
	hub := NewHub(testLogger())
	consumer := &fakeBusConsumer{}

	require.NoError(t, hub.consume(context.Background(), consumer))

	assert.Equal(t, messaging.ExchangeCRMEvents, consumer.exchange)
	assert.Equal(t, "crm.#", consumer.routingKey)
	assert.True(t, consumer.started)
	require.NotNil(t, consumer.handler)
}

func TestHubConsumeSubscribeErrorStopsStartup(t *testing.T) {
	hub := NewHub(testLogger())
	consumer := &fakeBusConsumer{subscribeErr: assert.AnError}

	err := hub.consume(context.Background(), consumer)

	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, consumer.started)
}

func TestHubConsumeRoutesEventsToListeners(t *testing.T) {
	hub := NewHub(testLogger())
	consumer := &fakeBusConsumer{}
	require.NoError(t, hub.consume(context.Background(), consumer))

	ch, cancel := hub.Subscribe("company-1", "leads")
	defer cancel()

	event, err := messaging.NewEvent("leads.created", "crm-server", "corr-1", messaging.RecordChange{
		Table:     "leads",
		Action:    "created",
		CompanyID: "company-1",
		RecordID:  "lead-1",
	})
	require.NoError(t, err)
	require.NoError(t, consumer.handler(context.Background(), event))

	select {
	case n := <-ch:
		assert.Equal(t, "leads", n.Table)
		assert.Equal(t, "company-1", n.CompanyID)
		assert.Equal(t, "lead-1", n.RecordID)
		assert.Equal(t, "leads.created", n.EventType)
	case <-time.After(time.Second):
		t.Fatal("bus event not routed to listener")
	}
}

func TestHubConsumeDropsUndecodableEvent(t *testing.T) {
	hub := NewHub(testLogger())
	consumer := &fakeBusConsumer{}
	require.NoError(t, hub.consume(context.Background(), consumer))

	ch, cancel := hub.Subscribe("company-1", "leads")
	defer cancel()

	event := &messaging.Event{Type: "leads.created", Data: []byte(`{"table":`)}
	// A malformed payload is dropped, not nacked into a retry loop.
	require.NoError(t, consumer.handler(context.Background(), event))

	select {
	case <-ch:
		t.Fatal("undecodable event should not reach listeners")
	default:
	}
}

func TestHubSubscribeAndDispatch(t *testing.T) {
	hub := NewHub(testLogger())

	ch, cancel := hub.Subscribe("company-1", "leads")
	defer cancel()

	hub.Dispatch(Notification{
		Table:     "leads",
		Action:    "created",
		CompanyID: "company-1",
		RecordID:  "lead-1",
		EventType: "leads.created",
	})

	select {
	case n := <-ch:
		assert.Equal(t, "leads", n.Table)
		assert.Equal(t, "created", n.Action)
		assert.Equal(t, "lead-1", n.RecordID)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestHubTenantIsolation(t *testing.T) {
	hub := NewHub(testLogger())

	ch1, cancel1 := hub.Subscribe("company-1", "leads")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("company-2", "leads")
	defer cancel2()

	hub.Dispatch(Notification{Table: "leads", Action: "updated", CompanyID: "company-2", RecordID: "x"})

	select {
	case n := <-ch2:
		assert.Equal(t, "company-2", n.CompanyID)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered to its own company")
	}

	select {
	case n := <-ch1:
		t.Fatalf("notification leaked across companies: %+v", n)
	default:
	}
}

func TestHubTableIsolation(t *testing.T) {
	hub := NewHub(testLogger())

	leadCh, cancel := hub.Subscribe("company-1", "leads")
	defer cancel()

	hub.Dispatch(Notification{Table: "appointments", Action: "created", CompanyID: "company-1", RecordID: "a"})

	select {
	case n := <-leadCh:
		t.Fatalf("notification leaked across tables: %+v", n)
	default:
	}
}

func TestHubDropsNotificationWithoutCompany(t *testing.T) {
	hub := NewHub(testLogger())

	ch, cancel := hub.Subscribe("", "leads")
	defer cancel()

	hub.Dispatch(Notification{Table: "leads", Action: "created", RecordID: "x"})

	select {
	case <-ch:
		t.Fatal("company-less notification should be dropped")
	default:
	}
}

func TestHubReferenceCounting(t *testing.T) {
	hub := NewHub(testLogger())

	_, cancel1 := hub.Subscribe("company-1", "leads")
	_, cancel2 := hub.Subscribe("company-1", "leads")
	require.Equal(t, 2, hub.SubscriberCount("company-1", "leads"))

	cancel1()
	assert.Equal(t, 1, hub.SubscriberCount("company-1", "leads"))

	// A second cancel of the same listener is a no-op
	cancel1()
	assert.Equal(t, 1, hub.SubscriberCount("company-1", "leads"))

	cancel2()
	assert.Equal(t, 0, hub.SubscriberCount("company-1", "leads"))

	// The key is fully released: a fresh subscribe starts from one
	_, cancel3 := hub.Subscribe("company-1", "leads")
	defer cancel3()
	assert.Equal(t, 1, hub.SubscriberCount("company-1", "leads"))
}

func TestHubFanOutToAllListeners(t *testing.T) {
	hub := NewHub(testLogger())

	ch1, cancel1 := hub.Subscribe("company-1", "leads")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("company-1", "leads")
	defer cancel2()

	hub.Dispatch(Notification{Table: "leads", Action: "deleted", CompanyID: "company-1", RecordID: "l"})

	for _, ch := range []<-chan Notification{ch1, ch2} {
		select {
		case n := <-ch:
			assert.Equal(t, "deleted", n.Action)
		case <-time.After(time.Second):
			t.Fatal("listener missed fan-out")
		}
	}
}

func TestHubSlowListenerDoesNotBlockDispatch(t *testing.T) {
	hub := NewHub(testLogger())

	_, cancelSlow := hub.Subscribe("company-1", "leads")
	defer cancelSlow()
	fast, cancelFast := hub.Subscribe("company-1", "leads")
	defer cancelFast()

	// Fill the slow listener's buffer past capacity; Dispatch must
	// keep returning and the fast listener must keep receiving.
	for i := 0; i < 40; i++ {
		hub.Dispatch(Notification{Table: "leads", Action: "updated", CompanyID: "company-1", RecordID: "r"})
	}

	received := 0
	for {
		select {
		case <-fast:
			received++
		default:
			assert.Greater(t, received, 0)
			return
		}
	}
}
