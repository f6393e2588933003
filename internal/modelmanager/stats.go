package modelmanager

import "time"

// ClassStats is the usage snapshot for one model class.
type ClassStats struct {
	Loaded            bool       `json:"loaded"`
	InUse             int        `json:"in_use"`
	MaxConcurrent     int        `json:"max_concurrent"`
	Exclusive         bool       `json:"exclusive"`
	TotalAcquisitions uint64     `json:"total_acquisitions"`
	TotalLoads        uint64     `json:"total_loads"`
	ForcedUnloads     uint64     `json:"forced_unloads"`
	LoadedAt          *time.Time `json:"loaded_at,omitempty"`
	LastUsedAt        *time.Time `json:"last_used_at,omitempty"`
	LoadSeconds       float64    `json:"load_seconds,omitempty"`
}

// Stats is the JSON-serializable usage snapshot across all classes.
type Stats struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Classes     map[string]ClassStats `json:"classes"`
}

// Stats returns a point-in-time usage snapshot of every registered class.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	slots := make([]*slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	m.mu.RUnlock()

	out := Stats{
		GeneratedAt: m.clock.Now(),
		Classes:     make(map[string]ClassStats, len(slots)),
	}

	for _, s := range slots {
		s.mu.Lock()
		cs := ClassStats{
			Loaded:            s.loaded,
			InUse:             s.usage,
			MaxConcurrent:     s.maxConcurrent,
			Exclusive:         s.exclusive,
			TotalAcquisitions: s.totalAcquisitions,
			TotalLoads:        s.totalLoads,
			ForcedUnloads:     s.forcedUnloads,
		}
		if s.loaded {
			loadedAt := s.loadedAt
			cs.LoadedAt = &loadedAt
			cs.LoadSeconds = s.loadDuration.Seconds()
		}
		if !s.lastUsedAt.IsZero() {
			lastUsed := s.lastUsedAt
			cs.LastUsedAt = &lastUsed
		}
		s.mu.Unlock()

		out.Classes[string(s.class)] = cs
	}

	return out
}
