package async

import (
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/spiralir/spiral/internal/value"
)

// ChannelStore hands out monotonically-numbered channel ids ("ch_N") and
// owns the channels behind them (spec.md §4.9). Backed by xsync.MapOf
// rather than a mutex+map: channel lookups happen on every send/recv
// suspension point, so a lock-free concurrent map keeps the hot path off
// a single global mutex.
type ChannelStore struct {
	channels *xsync.MapOf[string, *Channel]
	counter  atomic.Int64
}

func NewChannelStore() *ChannelStore {
	return &ChannelStore{channels: xsync.NewMapOf[string, *Channel]()}
}

// Create allocates a new channel of the given capacity and returns its id.
func (s *ChannelStore) Create(capacity int) string {
	id := fmt.Sprintf("ch_%d", s.counter.Add(1))
	s.channels.Store(id, NewChannel(capacity))
	return id
}

func (s *ChannelStore) Get(id string) (*Channel, bool) {
	return s.channels.Load(id)
}

// Delete closes and removes the channel, if present.
func (s *ChannelStore) Delete(id string) {
	if ch, ok := s.channels.LoadAndDelete(id); ok {
		ch.Close()
	}
}

// Clear closes and removes every channel in the store.
func (s *ChannelStore) Clear() {
	s.channels.Range(func(id string, ch *Channel) bool {
		ch.Close()
		s.channels.Delete(id)
		return true
	})
}

// RefCellStore is the named-handle registry for ref cells (spec.md §4.9).
type RefCellStore struct {
	cells *xsync.MapOf[string, *RefCell]
}

func NewRefCellStore() *RefCellStore {
	return &RefCellStore{cells: xsync.NewMapOf[string, *RefCell]()}
}

// GetOrCreate returns the named cell, creating it with initial if absent.
func (s *RefCellStore) GetOrCreate(name string, initial value.V) *RefCell {
	cell, _ := s.cells.LoadOrStore(name, NewRefCell(initial))
	return cell
}

func (s *RefCellStore) Get(name string) (*RefCell, bool) {
	return s.cells.Load(name)
}

func (s *RefCellStore) Delete(name string) {
	s.cells.Delete(name)
}

func (s *RefCellStore) Clear() {
	s.cells.Clear()
}
