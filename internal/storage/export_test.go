package storage

import "time"

// SetClock overrides the clock used to name files.
func (s *ImageStore) SetClock(now func() time.Time) {
	s.now = now
}
