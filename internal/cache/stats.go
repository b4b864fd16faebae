package cache

// Stats is a snapshot of memo counters
type Stats struct {
	Entries   int   `json:"entries" yaml:"entries"`
	Hits      int64 `json:"hits" yaml:"hits"`
	Misses    int64 `json:"misses" yaml:"misses"`
	Evictions int64 `json:"evictions" yaml:"evictions"`
}

// HitRate returns hits over total lookups, 0 when nothing was looked up
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Add combines two snapshots
func (s Stats) Add(other Stats) Stats {
	return Stats{
		Entries:   s.Entries + other.Entries,
		Hits:      s.Hits + other.Hits,
		Misses:    s.Misses + other.Misses,
		Evictions: s.Evictions + other.Evictions,
	}
}
