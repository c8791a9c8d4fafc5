package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/intents/pkg/commsutil"
	"github.com/morezero/intents/pkg/intent"
)

// startTestServer starts an in-process NATS server for testing.
func startTestServer(t *testing.T, port int) (*comms.Conn, func()) {
	t.Helper()

	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - failed to create server: %v", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("events:comms_publisher_integration_test - server failed to start")
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("events:comms_publisher_integration_test - failed to connect: %v", err)
	}

	cleanup := func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}

	return nc, cleanup
}

func subscribeEvents(t *testing.T, nc *comms.Conn, subject string) (chan *HandlerChangedEvent, *comms.Subscription) {
	t.Helper()
	received := make(chan *HandlerChangedEvent, 4)
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var event HandlerChangedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Errorf("events:comms_publisher_integration_test - failed to unmarshal: %v", err)
			return
		}
		received <- &event
	})
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - failed to subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("events:comms_publisher_integration_test - flush failed: %v", err)
	}
	return received, sub
}

func waitEvent(t *testing.T, ch chan *HandlerChangedEvent) *HandlerChangedEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("events:comms_publisher_integration_test - timed out waiting for event")
		return nil
	}
}

func TestCommsPublisher_PublishChanged_GranularSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, -1)
	defer cleanup()

	publisher := NewCommsPublisher(nc, nil)
	received, sub := subscribeEvents(t, nc, commsutil.BuildHandlerChangeSubject("com.example.maps"))
	defer sub.Unsubscribe()

	event := &HandlerChangedEvent{
		Package:   "com.example.maps",
		Change:    ChangeInstalled,
		Verbs:     []intent.Verb{intent.VerbView},
		Timestamp: "2025-01-01T00:00:00Z",
	}
	if err := publisher.PublishChanged(context.Background(), event); err != nil {
		t.Fatalf("events:comms_publisher_integration_test - publish failed: %v", err)
	}

	got := waitEvent(t, received)
	if got.Package != "com.example.maps" || got.Change != ChangeInstalled {
		t.Errorf("events:comms_publisher_integration_test - unexpected event %+v", got)
	}
	if len(got.Verbs) != 1 || got.Verbs[0] != intent.VerbView {
		t.Errorf("events:comms_publisher_integration_test - unexpected verbs %v", got.Verbs)
	}
}

func TestCommsPublisher_PublishChanged_GlobalSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, -1)
	defer cleanup()

	publisher := NewCommsPublisher(nc, nil)
	received, sub := subscribeEvents(t, nc, commsutil.SubjectHandlerChanged)
	defer sub.Unsubscribe()

	if err := publisher.PublishChanged(context.Background(), NewHandlerChangedEvent("", ChangeReloaded, nil)); err != nil {
		t.Fatalf("events:comms_publisher_integration_test - publish failed: %v", err)
	}

	got := waitEvent(t, received)
	if got.Change != ChangeReloaded || got.Package != "" {
		t.Errorf("events:comms_publisher_integration_test - unexpected event %+v", got)
	}
}

func TestCommsPublisher_CustomGlobalSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, -1)
	defer cleanup()

	publisher := NewCommsPublisher(nc, &CommsPublisherOpts{GlobalChangeSubject: "custom.handlers"})
	received, sub := subscribeEvents(t, nc, "custom.handlers")
	defer sub.Unsubscribe()

	if err := publisher.PublishChanged(context.Background(), NewHandlerChangedEvent("com.example.mail", ChangeUninstalled, nil)); err != nil {
		t.Fatalf("events:comms_publisher_integration_test - publish failed: %v", err)
	}

	got := waitEvent(t, received)
	if got.Package != "com.example.mail" || got.Change != ChangeUninstalled {
		t.Errorf("events:comms_publisher_integration_test - unexpected event %+v", got)
	}
}

func TestNewCommsPublisher_DefaultSubject(t *testing.T) {
	publisher := NewCommsPublisher(nil, nil)
	if publisher.globalChangeSubject != commsutil.SubjectHandlerChanged {
		t.Errorf("expected %s, got %s", commsutil.SubjectHandlerChanged, publisher.globalChangeSubject)
	}

	publisher = NewCommsPublisher(nil, &CommsPublisherOpts{})
	if publisher.globalChangeSubject != commsutil.SubjectHandlerChanged {
		t.Errorf("expected %s for empty opts, got %s", commsutil.SubjectHandlerChanged, publisher.globalChangeSubject)
	}
}
