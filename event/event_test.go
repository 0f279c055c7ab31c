package event

import (
	"testing"
	"time"

	"github.com/jangala-dev/zwavehost/types"
)

func recv(t *testing.T, sub *Subscription) *Message {
	t.Helper()
	select {
	case m := <-sub.Channel():
		return m
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
		return nil
	}
}

func TestPublishDeliversToExactSubscriber(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("")
	sub := conn.Subscribe(T("node", types.NodeID(5), "added"))

	conn.Publish(conn.NewMessage(T("node", types.NodeID(5), "added"), "hello", false))

	msg := recv(t, sub)
	if msg.Payload != "hello" {
		t.Fatalf("unexpected payload: %v", msg.Payload)
	}
}

func TestPublishMatchesSingleWildcard(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("")
	sub := conn.Subscribe(NodeAnyTopic())

	conn.Publish(NodeAddedEvent(b, &types.NodeRecord{ID: 9}))

	msg := recv(t, sub)
	rec, ok := msg.Payload.(*types.NodeRecord)
	if !ok || rec.ID != 9 {
		t.Fatalf("unexpected payload: %+v", msg.Payload)
	}
}

func TestPublishMatchesMultiWildcard(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("")
	sub := conn.Subscribe(T("node", "#"))

	conn.Publish(conn.NewMessage(T("node", types.NodeID(1), "updated"), "x", false))

	recv(t, sub)
}

func TestRetainedMessageReplayedToLateSubscriber(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("")

	conn.Publish(ControllerStateEvent(b, "idle"))

	sub := conn.Subscribe(ControllerStateTopic())
	msg := recv(t, sub)
	if msg.Payload != "idle" {
		t.Fatalf("expected retained snapshot to replay, got %v", msg.Payload)
	}
}

func TestRetainedMessageClearedByNilPayload(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("")

	conn.Publish(conn.NewMessage(T("node", types.NodeID(2), "added"), "present", true))
	conn.Publish(conn.NewMessage(T("node", types.NodeID(2), "added"), nil, true))

	sub := conn.Subscribe(T("node", types.NodeID(2), "added"))
	select {
	case msg := <-sub.Channel():
		t.Fatalf("expected no retained replay after clear, got %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("")
	sub := conn.Subscribe(T("node", types.NodeID(1), "added"))
	sub.Unsubscribe()

	conn.Publish(conn.NewMessage(T("node", types.NodeID(1), "added"), "x", false))

	select {
	case msg, ok := <-sub.Channel():
		if ok {
			t.Fatalf("expected no delivery after unsubscribe, got %v", msg)
		}
	case <-time.After(50 * time.Millisecond):
		t.Fatalf("expected channel closed after unsubscribe")
	}
}

func TestDisconnectTearsDownAllSubscriptions(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("demo")
	s1 := conn.Subscribe(T("node", types.NodeID(1), "added"))
	s2 := conn.Subscribe(T("node", types.NodeID(2), "added"))

	conn.Disconnect()

	for _, s := range []*Subscription{s1, s2} {
		if _, ok := <-s.Channel(); ok {
			t.Fatalf("expected channel closed after disconnect")
		}
	}
}

func TestFullQueueDropsOldestMessage(t *testing.T) {
	b := NewBus(1)
	conn := b.NewConnection("")
	sub := conn.Subscribe(T("node", types.NodeID(1), "updated"))

	conn.Publish(conn.NewMessage(T("node", types.NodeID(1), "updated"), 1, false))
	conn.Publish(conn.NewMessage(T("node", types.NodeID(1), "updated"), 2, false))

	msg := recv(t, sub)
	if msg.Payload != 2 {
		t.Fatalf("expected the newest message to survive the full queue, got %v", msg.Payload)
	}
}

func TestMessageCanReply(t *testing.T) {
	m := &Message{Topic: T("node", types.NodeID(1)), ReplyTo: "conn-42"}
	if !m.CanReply() {
		t.Fatalf("expected CanReply true when ReplyTo is set")
	}
	m2 := &Message{Topic: T("node", types.NodeID(1))}
	if m2.CanReply() {
		t.Fatalf("expected CanReply false when ReplyTo is empty")
	}
}
