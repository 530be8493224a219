package core

import (
	"reflect"
	"runtime"
	"sync"
)

const defaultTaskHistoryCapacity = 100

type incarnationHistory struct {
	mu    sync.Mutex
	items []IncarnationRecord
	head  int
	count int
}

func newIncarnationHistory(capacity int) *incarnationHistory {
	if capacity < 1 {
		capacity = defaultTaskHistoryCapacity
	}
	return &incarnationHistory{items: make([]IncarnationRecord, capacity)}
}

func (h *incarnationHistory) Add(record IncarnationRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first.
func (h *incarnationHistory) Recent(limit int) []IncarnationRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]IncarnationRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *incarnationHistory) Last() (IncarnationRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return IncarnationRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}

func resolveTaskName(body func(), explicit string) string {
	if explicit != "" {
		return explicit
	}

	if body == nil {
		return "anonymous"
	}

	pc := reflect.ValueOf(body).Pointer()
	if pc == 0 {
		return "anonymous"
	}

	fn := runtime.FuncForPC(pc)
	if fn == nil || fn.Name() == "" {
		return "anonymous"
	}
	return fn.Name()
}
