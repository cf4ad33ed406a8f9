package storage

import (
	"context"
	"github.com/alex-pricope/family-portal/logging"
)

type EventStorage interface {
	GetAll(ctx context.Context) ([]*Event, error)
	Create(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
}

type SupabaseEventStorage struct {
	Client    *RestClient
	TableName string
}

const eventColumns = "id,title,date,level,description,driveFolderId,bookingUrl"

func (s *SupabaseEventStorage) GetAll(ctx context.Context) ([]*Event, error) {
	var events []*Event
	if err := s.Client.Select(ctx, s.TableName, "", eventColumns, &events); err != nil {
		logging.Log.Errorf("EVENT: select failed: %v", err)
		return nil, err
	}
	return events, nil
}

func (s *SupabaseEventStorage) Create(ctx context.Context, event *Event) error {
	if _, err := s.Client.Insert(ctx, s.TableName, event); err != nil {
		logging.Log.Errorf("EVENT: insert failed: %v", err)
		return err
	}
	return nil
}

func (s *SupabaseEventStorage) Delete(ctx context.Context, id string) error {
	if err := s.Client.Delete(ctx, s.TableName, Eq("id", id)); err != nil {
		logging.Log.Errorf("EVENT: delete %s failed: %v", id, err)
		return err
	}
	return nil
}
