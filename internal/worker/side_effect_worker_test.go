package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/realtime"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

type channelCounter struct {
	mu    sync.Mutex
	count map[realtime.Channel]int
}

func (c *channelCounter) Publish(_ context.Context, channel realtime.Channel, _ realtime.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count[channel]++
	return nil
}

func TestWorkerDrainsOnStop(t *testing.T) {
	store := memstore.New()
	repos := store.Repositories()
	publisher := &channelCounter{count: map[realtime.Channel]int{}}

	outbox := events.NewOutbox(events.Options{Workers: 2, QueueSize: 16}, zap.NewNop(), nil)
	w := StartSideEffectWorker(outbox, service.NewSideEffects(repos, publisher, zap.NewNop()), zap.NewNop())

	actor := events.Actor{ID: "u-1", Email: "tech@example.com", FullName: "Theo", Role: domain.RoleTechnician}
	for i := 0; i < 5; i++ {
		outbox.Dispatch(events.Event{Type: events.EventItemUpdated, Kind: domain.KindRequirement, ItemID: "r-1", ItemTitle: "Laptop", Actor: actor})
	}
	w.Stop(time.Second)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if publisher.count[realtime.ChannelRequirements] != 5 {
		t.Fatalf("broadcasts = %v", publisher.count)
	}
	recent, err := repos.Activity.ListRecent(context.Background(), 10)
	if err != nil || len(recent) != 5 {
		t.Fatalf("activity = %d, %v", len(recent), err)
	}
}
