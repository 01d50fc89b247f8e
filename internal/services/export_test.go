package services

import "time"

// Test hooks for deterministic clocks and token generation.

func SetTaskClock(s *TaskService, now func() time.Time) {
	s.now = now
}

func SetApprovalClock(s *ApprovalService, now func() time.Time) {
	s.now = now
}

func SetTokenGenerator(s *ApprovalService, gen func() (string, error)) {
	s.generateToken = gen
}

func SetPasswordGenerator(s *UserService, gen func() (string, error)) {
	s.generatePassword = gen
}
