package services

import "time"

// SetTokenClock replaces the clock used to stamp and check tokens.
func SetTokenClock(s *TokenService, now func() time.Time) {
	s.now = now
}

// SetTaskEnvironment replaces the clock and host name lookup used for audit stamps.
func SetTaskEnvironment(s *TaskService, now func() time.Time, hostname func() (string, error)) {
	s.now = now
	s.hostname = hostname
}
