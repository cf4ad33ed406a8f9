package storage

import (
	"context"
	"github.com/alex-pricope/family-portal/logging"
)

type PasscodeStorage interface {
	GetAll(ctx context.Context) ([]*Passcode, error)
	Get(ctx context.Context, code string) (*Passcode, error)
	Put(ctx context.Context, passcode *Passcode) error
	Delete(ctx context.Context, code string) error
}

type SupabasePasscodeStorage struct {
	Client    *RestClient
	TableName string
}

const passcodeColumns = "passcode,level"

func (s *SupabasePasscodeStorage) GetAll(ctx context.Context) ([]*Passcode, error) {
	var codes []*Passcode
	if err := s.Client.Select(ctx, s.TableName, "", passcodeColumns, &codes); err != nil {
		logging.Log.Errorf("PASSCODE: select failed: %v", err)
		return nil, err
	}
	return codes, nil
}

// Get returns ErrItemNotFound when no row has exactly this passcode.
func (s *SupabasePasscodeStorage) Get(ctx context.Context, code string) (*Passcode, error) {
	var codes []*Passcode
	if err := s.Client.Select(ctx, s.TableName, Eq("passcode", code), passcodeColumns, &codes); err != nil {
		logging.Log.Errorf("PASSCODE: lookup failed: %v", err)
		return nil, err
	}
	if len(codes) == 0 {
		return nil, ErrItemNotFound
	}
	return codes[0], nil
}

func (s *SupabasePasscodeStorage) Put(ctx context.Context, passcode *Passcode) error {
	if _, err := s.Client.Upsert(ctx, s.TableName, passcode, "passcode"); err != nil {
		logging.Log.Errorf("PASSCODE: upsert failed: %v", err)
		return err
	}
	return nil
}

func (s *SupabasePasscodeStorage) Delete(ctx context.Context, code string) error {
	if err := s.Client.Delete(ctx, s.TableName, Eq("passcode", code)); err != nil {
		logging.Log.Errorf("PASSCODE: delete failed: %v", err)
		return err
	}
	return nil
}
