package service

import (
	"time"

	"github.com/google/uuid"

	"competition-ledger/internal/lib/invitecode"
)

type options struct {
	now     func() time.Time
	newID   func() string
	newCode func() (string, error)
}

type Option func(*options)

// WithClock replaces time.Now, making time-boxed rules deterministic in tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func WithCodeGenerator(newCode func() (string, error)) Option {
	return func(o *options) { o.newCode = newCode }
}

func buildOptions(opts []Option) options {
	o := options{
		now:     time.Now,
		newID:   uuid.NewString,
		newCode: invitecode.New,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) clock() time.Time {
	return o.now().UTC()
}

func teamKey(id string) string       { return "team:" + id }
func userKey(id string) string       { return "user:" + id }
func projectKey(id string) string    { return "project:" + id }
func submissionKey(id string) string { return "submission:" + id }
