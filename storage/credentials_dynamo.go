package storage

import (
	"context"
	"errors"
	"github.com/alex-pricope/family-portal/logging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"strconv"
	"time"
)

// DynamoClient is the subset of *dynamodb.Client the credential store uses.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// credentialItem is stored under PK "otp#<user>" or "password#<user>".
// ExpiresAt is the table's TTL attribute; DynamoDB removes expired items lazily,
// so reads check it too.
type credentialItem struct {
	Key       string `dynamodbav:"PK"`
	Value     string `dynamodbav:"Value"`
	ExpiresAt int64  `dynamodbav:"ExpiresAt,omitempty"`
	Attempts  int    `dynamodbav:"Attempts,omitempty"`
}

type DynamoCredentialStore struct {
	Client    DynamoClient
	TableName string
	Now       func() time.Time
}

func (s *DynamoCredentialStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DynamoCredentialStore) PutOTP(ctx context.Context, username, otp string, ttl time.Duration) error {
	return s.put(ctx, &credentialItem{
		Key:       "otp#" + username,
		Value:     otp,
		ExpiresAt: s.now().Add(ttl).Unix(),
	})
}

// ConsumeOTP deletes the item only when the code matches and has not expired.
// A failed condition counts an attempt; the attempt reaching MaxOTPAttempts
// removes the item.
func (s *DynamoCredentialStore) ConsumeOTP(ctx context.Context, username, otp string) (bool, error) {
	key, err := otpKey(username)
	if err != nil {
		return false, err
	}

	_, err = s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &s.TableName,
		Key:                 key,
		ConditionExpression: aws.String("#value = :otp AND #expires > :now"),
		ExpressionAttributeNames: map[string]string{
			"#value":   "Value",
			"#expires": "ExpiresAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":otp": &types.AttributeValueMemberS{Value: otp},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Unix(), 10)},
		},
	})
	if err == nil {
		return true, nil
	}
	var failed *types.ConditionalCheckFailedException
	if !errors.As(err, &failed) {
		logging.Log.Errorf("CREDENTIALS: DEL otp failed: %v", err)
		return false, err
	}

	return false, s.countFailedAttempt(ctx, key)
}

func (s *DynamoCredentialStore) countFailedAttempt(ctx context.Context, key map[string]types.AttributeValue) error {
	out, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &s.TableName,
		Key:                 key,
		UpdateExpression:    aws.String("ADD Attempts :one"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var failed *types.ConditionalCheckFailedException
		if errors.As(err, &failed) {
			// no pending otp
			return nil
		}
		logging.Log.Errorf("CREDENTIALS: UPDATE otp attempts failed: %v", err)
		return err
	}

	var counted struct {
		Attempts int `dynamodbav:"Attempts"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &counted); err != nil {
		logging.Log.Errorf("CREDENTIALS: failed to unmarshal attempts: %v", err)
		return err
	}
	if counted.Attempts < MaxOTPAttempts {
		return nil
	}

	if _, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: &s.TableName, Key: key}); err != nil {
		logging.Log.Errorf("CREDENTIALS: DEL otp after %d attempts failed: %v", counted.Attempts, err)
		return err
	}
	logging.Log.Warnf("CREDENTIALS: otp dropped after %d failed attempts", counted.Attempts)
	return nil
}

func otpKey(username string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": "otp#" + username})
	if err != nil {
		logging.Log.Errorf("CREDENTIALS: failed to marshal key: %v", err)
		return nil, err
	}
	return key, nil
}

func (s *DynamoCredentialStore) SetPasswordHash(ctx context.Context, username, hash string) error {
	return s.put(ctx, &credentialItem{Key: "password#" + username, Value: hash})
}

func (s *DynamoCredentialStore) GetPasswordHash(ctx context.Context, username string) (string, error) {
	item, err := s.get(ctx, "password#"+username)
	if err != nil {
		return "", err
	}
	return item.Value, nil
}

func (s *DynamoCredentialStore) put(ctx context.Context, item *credentialItem) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		logging.Log.Errorf("CREDENTIALS: failed to marshal item: %v", err)
		return err
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.TableName,
		Item:      av,
	})
	if err != nil {
		logging.Log.Errorf("CREDENTIALS: PUT storage failed: %v", err)
		return err
	}
	return nil
}

func (s *DynamoCredentialStore) get(ctx context.Context, pk string) (*credentialItem, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"PK": pk})
	if err != nil {
		logging.Log.Errorf("CREDENTIALS: failed to marshal key: %v", err)
		return nil, err
	}

	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.TableName,
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		logging.Log.Errorf("CREDENTIALS: GET storage failed: %v", err)
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrItemNotFound
	}

	var item credentialItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		logging.Log.Errorf("CREDENTIALS: failed to unmarshal item: %v", err)
		return nil, err
	}
	return &item, nil
}
