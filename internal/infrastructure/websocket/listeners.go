package websocket

import (
	"sync"

	"xchart/internal/domain/market"
)

type listenerEntry struct {
	id market.ListenerID
	fn market.Listener
}

// listenerRegistry 按注册顺序保存监听器
// 分发时遍历快照，监听器在回调中移除自己或其他监听器是安全的
type listenerRegistry struct {
	mu      sync.Mutex
	nextID  market.ListenerID
	entries []listenerEntry
}

func (r *listenerRegistry) add(fn market.Listener) market.ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries = append(r.entries, listenerEntry{id: r.nextID, fn: fn})
	return r.nextID
}

// remove is a no-op for unknown or already removed ids.
func (r *listenerRegistry) remove(id market.ListenerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			// 复制而不是原地修改，正在遍历的快照不受影响
			next := make([]listenerEntry, 0, len(r.entries)-1)
			next = append(next, r.entries[:i]...)
			r.entries = append(next, r.entries[i+1:]...)
			return
		}
	}
}

func (r *listenerRegistry) has(id market.ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

func (r *listenerRegistry) snapshot() []listenerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries
}

func (r *listenerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
