package notifier

import (
	"context"
	"sort"
	"sync"
)

const defaultHistorySize = 50

// MemoryPlatform keeps notifications in process. The HTTP server exposes
// its snapshot so the user can read the current status.
type MemoryPlatform struct {
	mu          sync.RWMutex
	granted     bool
	historySize int
	channels    map[string]Channel
	ongoing     *Notification
	outcomes    []Notification
}

type Snapshot struct {
	Ongoing  *Notification  `json:"ongoing"`
	Outcomes []Notification `json:"outcomes"`
}

func NewMemoryPlatform(granted bool, historySize int) *MemoryPlatform {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &MemoryPlatform{
		granted:     granted,
		historySize: historySize,
		channels:    map[string]Channel{},
	}
}

func (p *MemoryPlatform) PermissionGranted(_ context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.granted
}

func (p *MemoryPlatform) SetPermission(granted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted = granted
}

func (p *MemoryPlatform) CreateChannel(_ context.Context, channel Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[channel.ID] = channel
	return nil
}

func (p *MemoryPlatform) Notify(_ context.Context, n Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n.Ongoing {
		p.ongoing = &n
		return nil
	}

	p.outcomes = append([]Notification{n}, p.outcomes...)
	if len(p.outcomes) > p.historySize {
		p.outcomes = p.outcomes[:p.historySize]
	}
	return nil
}

func (p *MemoryPlatform) Channels() []Channel {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]Channel, 0, len(p.channels))
	for _, channel := range p.channels {
		result = append(result, channel)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Snapshot returns the ongoing notification and the outcomes, newest first.
func (p *MemoryPlatform) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := Snapshot{Outcomes: append([]Notification{}, p.outcomes...)}
	if p.ongoing != nil {
		ongoing := *p.ongoing
		snapshot.Ongoing = &ongoing
	}
	return snapshot
}
