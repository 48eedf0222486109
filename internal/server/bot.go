package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acheronbot/acheron/internal/biz/domain"
	"github.com/acheronbot/acheron/internal/service"
)

// TransportClient is the inbound side of the chat transport
type TransportClient interface {
	// OnEvent sets the handler for inbound message events
	OnEvent(func(*domain.Event))

	// OnGroupUpdate sets the handler for group membership changes
	OnGroupUpdate(func(*domain.GroupUpdate))

	// Start connects and blocks until the connection ends
	Start() error

	// Stop disconnects
	Stop()
}

// BotServer binds the transport to the router. Inbound events are queued
// onto a channel drained by exactly one goroutine, so events are processed
// one at a time, in arrival order, to completion.
type BotServer struct {
	client TransportClient
	router *service.Router
	pruner *service.PruneRunner

	events  chan *domain.Event
	updates chan *domain.GroupUpdate
	stopCh  chan struct{}
	wg      sync.WaitGroup

	restartOnce sync.Once
	restartCh   chan struct{}

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // msgID -> timestamp
}

// NewBotServer creates a new bot server
func NewBotServer(client TransportClient, router *service.Router, pruner *service.PruneRunner) *BotServer {
	s := &BotServer{
		client:    client,
		router:    router,
		pruner:    pruner,
		events:    make(chan *domain.Event, 256),
		updates:   make(chan *domain.GroupUpdate, 64),
		stopCh:    make(chan struct{}),
		restartCh: make(chan struct{}),
		seenMsgs:  make(map[string]time.Time),
	}

	router.SetRestartFunc(s.RequestRestart)
	return s
}

// Start starts the consumer loop, maintenance and the transport connection.
// It blocks until the transport stops.
func (s *BotServer) Start() error {
	s.wg.Add(1)
	go s.consume()

	if s.pruner != nil {
		s.pruner.Start()
	}

	s.client.OnEvent(s.enqueueEvent)
	s.client.OnGroupUpdate(s.enqueueGroupUpdate)
	return s.client.Start()
}

// Stop stops the server
func (s *BotServer) Stop() {
	if s.pruner != nil {
		s.pruner.Stop()
	}
	s.client.Stop()
	close(s.stopCh)
	s.wg.Wait()
}

// RequestRestart signals a graceful restart (used by the restart command)
func (s *BotServer) RequestRestart() {
	s.restartOnce.Do(func() {
		close(s.restartCh)
	})
}

// RestartRequested is closed when a graceful restart has been requested
func (s *BotServer) RestartRequested() <-chan struct{} {
	return s.restartCh
}

func (s *BotServer) enqueueEvent(ev *domain.Event) {
	if ev == nil {
		return
	}
	if ev.MsgID != "" && s.isMessageSeen(ev.MsgID) {
		fmt.Printf("[Server] Duplicate message ignored: %s\n", ev.MsgID)
		return
	}
	s.markMessageSeen(ev.MsgID)

	select {
	case s.events <- ev:
	default:
		fmt.Printf("[Server] Event queue full, dropping message %s\n", ev.MsgID)
	}
}

func (s *BotServer) enqueueGroupUpdate(gu *domain.GroupUpdate) {
	if gu == nil {
		return
	}
	select {
	case s.updates <- gu:
	default:
		fmt.Printf("[Server] Update queue full, dropping group update for %s\n", gu.GroupID)
	}
}

// consume drains the queues. One goroutine only: this is the
// serialization boundary for all store and config access.
func (s *BotServer) consume() {
	defer s.wg.Done()

	ctx := context.Background()
	for {
		select {
		case ev := <-s.events:
			s.router.HandleEvent(ctx, ev)
		case gu := <-s.updates:
			s.router.HandleGroupUpdate(ctx, gu)
		case <-s.stopCh:
			return
		}
	}
}

// isMessageSeen checks if a message has been processed
func (s *BotServer) isMessageSeen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	_, exists := s.seenMsgs[msgID]
	return exists
}

// markMessageSeen marks a message as processed and evicts stale entries
func (s *BotServer) markMessageSeen(msgID string) {
	if msgID == "" {
		return
	}
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	s.seenMsgs[msgID] = time.Now()

	cutoff := time.Now().Add(-5 * time.Minute)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}
