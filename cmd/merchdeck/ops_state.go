package main

import (
	"sync"

	"github.com/merchdeck/merchdeck/internal/menu"
	"github.com/merchdeck/merchdeck/internal/nav"
	"github.com/merchdeck/merchdeck/internal/server"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// opsState mirrors workbench and pipeline state off the event bus so
// the ops handlers never touch bubbletea-owned structures. Snapshot
// reads can come from any HTTP goroutine.
type opsState struct {
	mu       sync.Mutex
	tabs     []server.TabInfo
	pipeline server.PipelineStatus
	binding  *nav.Binding
}

func newOpsState(bus *events.EventBus, binding *nav.Binding) *opsState {
	s := &opsState{binding: binding}
	s.tabs = []server.TabInfo{s.tabInfo(menu.HomeID, true)}

	bus.Subscribe(events.TabOpened, func(e events.Event) {
		id, _ := e.Data["id"].(string)
		if id == "" {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, t := range s.tabs {
			if t.ID == id {
				return
			}
		}
		s.tabs = append(s.tabs, s.tabInfo(id, false))
	})

	bus.Subscribe(events.TabClosed, func(e events.Event) {
		id, _ := e.Data["id"].(string)
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, t := range s.tabs {
			if t.ID == id {
				s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
				break
			}
		}
	})

	bus.Subscribe(events.NavigationChanged, func(e events.Event) {
		id, _ := e.Data["id"].(string)
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.tabs {
			s.tabs[i].Active = s.tabs[i].ID == id
		}
	})

	bus.Subscribe(events.PipelineProgress, func(e events.Event) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pipeline = server.PipelineStatus{
			Running:      true,
			Current:      intFrom(e.Data, "current"),
			Total:        intFrom(e.Data, "total"),
			Batch:        intFrom(e.Data, "batch"),
			TotalBatches: intFrom(e.Data, "totalBatches"),
		}
		s.pipeline.Stage, _ = e.Data["stage"].(string)
		s.pipeline.RecordKey, _ = e.Data["recordKey"].(string)
	})

	bus.Subscribe(events.PipelineFinished, func(e events.Event) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.pipeline.Running = false
		s.pipeline.Stage = "finished"
	})

	return s
}

func (s *opsState) tabInfo(id string, active bool) server.TabInfo {
	path, _ := s.binding.PathOf(id)
	return server.TabInfo{ID: id, Title: id, Path: path, Active: active}
}

// Tabs is the snapshot handed to the ops server.
func (s *opsState) Tabs() []server.TabInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]server.TabInfo, len(s.tabs))
	copy(out, s.tabs)
	return out
}

// Pipeline is the snapshot handed to the ops server.
func (s *opsState) Pipeline() server.PipelineStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline
}

// intFrom tolerates both int and the float64 that a JSON round trip
// would produce.
func intFrom(data map[string]interface{}, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
