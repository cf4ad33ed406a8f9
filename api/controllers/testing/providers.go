package testing

import (
	"context"
	"sync"
)

type SentMail struct {
	To      []string
	Subject string
	Text    string
}

type Mailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *Mailer) Send(_ context.Context, to []string, subject, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Text: text})
	return m.Err
}

func (m *Mailer) All() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.Sent...)
}

type SentSMS struct {
	To   string
	Body string
}

// SMS fails every send addressed to a number in FailFor.
type SMS struct {
	mu      sync.Mutex
	Sent    []SentSMS
	FailFor map[string]error
}

func (s *SMS) Send(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.FailFor[to]; ok {
		return err
	}
	s.Sent = append(s.Sent, SentSMS{To: to, Body: body})
	return nil
}

func (s *SMS) All() []SentSMS {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentSMS(nil), s.Sent...)
}

type TrackedEvent struct {
	Name       string
	DistinctID string
	Props      map[string]any
}

type Tracker struct {
	mu     sync.Mutex
	Events []TrackedEvent
	Err    error
}

func (t *Tracker) Track(_ context.Context, event, distinctID string, props map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Events = append(t.Events, TrackedEvent{Name: event, DistinctID: distinctID, Props: props})
	return t.Err
}

func (t *Tracker) All() []TrackedEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TrackedEvent(nil), t.Events...)
}
