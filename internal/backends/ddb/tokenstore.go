package ddb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"tokend/internal/ident"
	"tokend/internal/ports"
	"tokend/internal/types"
)

// TokenStore implements ports.TokenStore on a DynamoDB single-table
// layout: PK=TOKEN#<id>, SK=INFO. Mutations are applied as they are
// issued; DynamoDB gives per-item atomicity, so Commit is a no-op.
type TokenStore struct {
	table string
	cli   *dynamodb.Client
}

type tokenItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ID        string `dynamodbav:"id"`
	Owner     string `dynamodbav:"owner"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

func NewTokenStore(table string, cli *dynamodb.Client) *TokenStore {
	// Creates the table only if it doesn't exist.
	createTableIfNotExists(cli, table)
	return &TokenStore{table: table, cli: cli}
}

func (s *TokenStore) Get(ctx context.Context, q ports.Query) ([]types.TokenRecord, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.table,
		ConsistentRead: awsBool(true),
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkToken(q.ID.String())},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skInfo()},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var item tokenItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	rec, err := item.toRecord()
	if err != nil {
		return nil, err
	}
	return []types.TokenRecord{rec}, nil
}

func (s *TokenStore) Add(ctx context.Context, rec types.TokenRecord) error {
	av, err := attributevalue.MarshalMap(fromRecord(rec))
	if err != nil {
		return err
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.table,
		Item:                av,
		ConditionExpression: awsString("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var cc *ddbTypes.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return types.Err(types.ErrStoreAccess, err, "duplicate id %s", rec.ID)
		}
		return err
	}
	return nil
}

func (s *TokenStore) Update(ctx context.Context, rec types.TokenRecord) error {
	av, err := attributevalue.MarshalMap(fromRecord(rec))
	if err != nil {
		return err
	}
	// Full replacement; the caller holds the complete record.
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      av,
	})
	return err
}

func (s *TokenStore) Delete(ctx context.Context, rec types.TokenRecord) error {
	_, err := s.cli.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkToken(rec.ID.String())},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skInfo()},
		},
	})
	return err
}

func (s *TokenStore) Commit(ctx context.Context) error {
	// Writes land as they are issued.
	return nil
}

func fromRecord(rec types.TokenRecord) tokenItem {
	return tokenItem{
		PK:        pkToken(rec.ID.String()),
		SK:        skInfo(),
		ID:        rec.ID.String(),
		Owner:     rec.Owner,
		ExpiresAt: rec.ExpiresAt.Unix(),
	}
}

func (it tokenItem) toRecord() (types.TokenRecord, error) {
	id, err := ident.Parse(it.ID)
	if err != nil {
		return types.TokenRecord{}, err
	}
	return types.TokenRecord{
		ID:        id,
		Owner:     it.Owner,
		ExpiresAt: time.Unix(it.ExpiresAt, 0).UTC(),
	}, nil
}
