package testing

import (
	"context"
	"github.com/alex-pricope/family-portal/storage"
	"sync"
)

// PasscodeStore is an in-memory storage.PasscodeStorage keyed on the passcode.
type PasscodeStore struct {
	mu    sync.Mutex
	rows  map[string]storage.Passcode
	order []string
	Err   error
}

func NewPasscodeStore(seed ...storage.Passcode) *PasscodeStore {
	s := &PasscodeStore{rows: make(map[string]storage.Passcode)}
	for _, p := range seed {
		_ = s.Put(context.Background(), &p)
	}
	return s
}

func (s *PasscodeStore) GetAll(_ context.Context) ([]*storage.Passcode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]*storage.Passcode, 0, len(s.order))
	for _, code := range s.order {
		p := s.rows[code]
		out = append(out, &p)
	}
	return out, nil
}

func (s *PasscodeStore) Get(_ context.Context, code string) (*storage.Passcode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.rows[code]
	if !ok {
		return nil, storage.ErrItemNotFound
	}
	return &p, nil
}

func (s *PasscodeStore) Put(_ context.Context, passcode *storage.Passcode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.rows[passcode.Passcode]; !ok {
		s.order = append(s.order, passcode.Passcode)
	}
	s.rows[passcode.Passcode] = *passcode
	return nil
}

func (s *PasscodeStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.rows[code]; !ok {
		return nil
	}
	delete(s.rows, code)
	for i, c := range s.order {
		if c == code {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

type EventStore struct {
	mu     sync.Mutex
	Events []*storage.Event
	Err    error
}

func (s *EventStore) GetAll(_ context.Context) ([]*storage.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]*storage.Event(nil), s.Events...), nil
}

func (s *EventStore) Create(_ context.Context, event *storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Events = append(s.Events, event)
	return nil
}

func (s *EventStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for i, ev := range s.Events {
		if ev.ID == id {
			s.Events = append(s.Events[:i], s.Events[i+1:]...)
			break
		}
	}
	return nil
}

type SessionStore struct {
	mu       sync.Mutex
	Sessions []*storage.Session
	Err      error
}

func (s *SessionStore) Create(_ context.Context, session *storage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sessions = append(s.Sessions, session)
	return nil
}

func (s *SessionStore) All() []*storage.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*storage.Session(nil), s.Sessions...)
}

type RatingStore struct {
	mu      sync.Mutex
	Ratings []*storage.Rating
	Err     error
}

func (s *RatingStore) Create(_ context.Context, rating *storage.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Ratings = append(s.Ratings, rating)
	return nil
}
