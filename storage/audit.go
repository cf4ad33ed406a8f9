package storage

import (
	"context"
	"github.com/alex-pricope/family-portal/logging"
)

type SessionStorage interface {
	Create(ctx context.Context, session *Session) error
}

type RatingStorage interface {
	Create(ctx context.Context, rating *Rating) error
}

type SupabaseSessionStorage struct {
	Client    *RestClient
	TableName string
}

func (s *SupabaseSessionStorage) Create(ctx context.Context, session *Session) error {
	if _, err := s.Client.Insert(ctx, s.TableName, session); err != nil {
		logging.Log.Errorf("SESSION: insert %s failed: %v", session.ID, err)
		return err
	}
	return nil
}

type SupabaseRatingStorage struct {
	Client    *RestClient
	TableName string
}

func (s *SupabaseRatingStorage) Create(ctx context.Context, rating *Rating) error {
	if _, err := s.Client.Insert(ctx, s.TableName, rating); err != nil {
		logging.Log.Errorf("RATING: insert failed: %v", err)
		return err
	}
	return nil
}
