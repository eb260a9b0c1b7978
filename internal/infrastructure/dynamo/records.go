package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/token-check-api/internal/domain"
)

// TokenRepo provides typed DynamoDB operations for the checked-tokens table.
// The token is the partition key; the user_id-index GSI backs lookups by
// account, so the secondary index is maintained by DynamoDB atomically with
// every write.
type TokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTokenRepo(client *dynamodb.Client, tableName string) *TokenRepo {
	return &TokenRepo{client: client, tableName: tableName}
}

// Save upserts the record for a successfully verified token; PutItem by full
// key gives last-seen overwrite semantics.
func (r *TokenRepo) Save(ctx context.Context, res domain.TokenResult) (*domain.SavedToken, error) {
	if !res.Valid || res.User == nil {
		return nil, fmt.Errorf("save requires a valid result with a profile: %w", domain.ErrBadRequest)
	}
	rec := domain.SavedToken{
		Token:     res.Token,
		UserID:    res.User.ID,
		Username:  res.User.Username,
		Timestamp: time.Now().UnixMilli(),
		Valid:     true,
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal saved token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetAll scans the full table. Fine at this table's scale; callers sort if
// they need an order.
func (r *TokenRepo) GetAll(ctx context.Context) ([]domain.SavedToken, error) {
	var out []domain.SavedToken
	var startKey map[string]types.AttributeValue
	for {
		page, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var recs []domain.SavedToken
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return nil, err
		}
		out = append(out, recs...)
		if page.LastEvaluatedKey == nil {
			return out, nil
		}
		startKey = page.LastEvaluatedKey
	}
}

// GetByUserID queries the user_id-index GSI.
func (r *TokenRepo) GetByUserID(ctx context.Context, userID string) ([]domain.SavedToken, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("#uid = :uid"),
		ExpressionAttributeNames: map[string]string{
			"#uid": "user_id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var recs []domain.SavedToken
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
