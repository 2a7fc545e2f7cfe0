package notify

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dxcccii/taskdesk/internal/services/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeliverer struct {
	mu    sync.Mutex
	lines map[string][]string
	fail  map[string]bool
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{
		lines: make(map[string][]string),
		fail:  make(map[string]bool),
	}
}

func (d *recordingDeliverer) Deliver(clientID string, line string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fail[clientID] {
		return fmt.Errorf("connection closed")
	}
	d.lines[clientID] = append(d.lines[clientID], line)
	return nil
}

func (d *recordingDeliverer) delivered(clientID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.lines[clientID]))
	copy(out, d.lines[clientID])
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func allocationEvent(serviceID, description string) *tasks.Event {
	return &tasks.Event{
		Type:        tasks.EventTaskAllocated,
		ServiceID:   serviceID,
		Description: description,
		Status:      tasks.StatusInProgress,
		ClientID:    "Cl1",
	}
}

func TestFanout_DeliversToAllSubscribers(t *testing.T) {
	subs := NewSubscriptions()
	subs.Subscribe("Cl1", "Service_A")
	subs.Subscribe("Cl2", "Service_A")
	subs.Subscribe("Cl3", "Service_B")

	deliverer := newRecordingDeliverer()
	notifier := NewFanout(subs, deliverer, 16)
	defer notifier.Close()

	event := allocationEvent("Service_A", "wash bike")
	notifier.Publish(event)

	waitFor(t, func() bool { return len(deliverer.delivered("Cl2")) == 1 })

	// the acting client is a subscriber like any other
	assert.Equal(t, []string{event.Render()}, deliverer.delivered("Cl1"))
	assert.Equal(t, []string{event.Render()}, deliverer.delivered("Cl2"))
	assert.Empty(t, deliverer.delivered("Cl3"), "other service's subscriber")
}

func TestFanout_FailedSubscriberDoesNotBlockOthers(t *testing.T) {
	subs := NewSubscriptions()
	subs.Subscribe("Cl1", "Service_A")
	subs.Subscribe("Cl2", "Service_A")

	deliverer := newRecordingDeliverer()
	deliverer.fail["Cl1"] = true

	notifier := NewFanout(subs, deliverer, 16)
	defer notifier.Close()

	notifier.Publish(allocationEvent("Service_A", "wash bike"))

	waitFor(t, func() bool { return len(deliverer.delivered("Cl2")) == 1 })
	assert.Empty(t, deliverer.delivered("Cl1"))
}

func TestFanout_PreservesPublishOrderPerSubscriber(t *testing.T) {
	subs := NewSubscriptions()
	subs.Subscribe("Cl1", "Service_A")

	deliverer := newRecordingDeliverer()
	notifier := NewFanout(subs, deliverer, 64)
	defer notifier.Close()

	const eventCount = 20
	want := make([]string, 0, eventCount)
	for i := 0; i < eventCount; i++ {
		event := allocationEvent("Service_A", fmt.Sprintf("task %d", i))
		want = append(want, event.Render())
		notifier.Publish(event)
	}

	waitFor(t, func() bool { return len(deliverer.delivered("Cl1")) == eventCount })
	assert.Equal(t, want, deliverer.delivered("Cl1"))
}

func TestFanout_SubscriberSetIsReadAtDeliveryTime(t *testing.T) {
	subs := NewSubscriptions()
	deliverer := newRecordingDeliverer()
	notifier := NewFanout(subs, deliverer, 16)
	defer notifier.Close()

	notifier.Publish(allocationEvent("Service_A", "before subscribe"))

	subs.Subscribe("Cl1", "Service_A")
	notifier.Publish(allocationEvent("Service_A", "after subscribe"))

	hasAfter := func() bool {
		for _, line := range deliverer.delivered("Cl1") {
			if strings.Contains(line, "after subscribe") {
				return true
			}
		}
		return false
	}
	waitFor(t, hasAfter)

	lines := deliverer.delivered("Cl1")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "after subscribe")
}

func TestFanout_CloseFlushesQueue(t *testing.T) {
	subs := NewSubscriptions()
	subs.Subscribe("Cl1", "Service_A")

	deliverer := newRecordingDeliverer()
	notifier := NewFanout(subs, deliverer, 64)

	for i := 0; i < 10; i++ {
		notifier.Publish(allocationEvent("Service_A", fmt.Sprintf("task %d", i)))
	}
	notifier.Close()

	waitFor(t, func() bool { return len(deliverer.delivered("Cl1")) == 10 })
}
