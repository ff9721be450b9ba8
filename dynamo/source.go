// Package dynamo reads configuration documents from a DynamoDB table.
//
// A document is an item with a string partition key "id", an optional
// "collection" attribute (indexed by a GSI for collection-scoped loads), a
// "body" map holding the document content, and an optional "ttl" number
// marking soft deletion. Soft-deleted items are treated as absent.
package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Entry is one fetched document: its id and raw body. A missing body
// attribute yields an empty map body.
type Entry struct {
	ID   string
	Body types.AttributeValue
}

// Source fetches configuration documents from one DynamoDB table.
type Source struct {
	client *dynamodb.Client
	config Config
}

// New creates a new Source.
func New(client *dynamodb.Client, config Config) *Source {
	config.validate()
	return &Source{
		client: client,
		config: config,
	}
}

// Table returns the configured table name.
func (s *Source) Table() string {
	return s.config.Table
}

// Get retrieves one document body by id, returning ErrNotFound if the item
// is absent or soft-deleted.
func (s *Source) Get(ctx context.Context, id string) (types.AttributeValue, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.Table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get document %q: %w", id, err)
	}
	if len(result.Item) == 0 {
		return nil, ErrNotFound
	}
	if IsDeleted(result.Item) {
		return nil, ErrNotFound
	}
	return documentBody(result.Item), nil
}

// ByCollection returns all live documents in a named collection, in no
// particular order.
func (s *Source) ByCollection(ctx context.Context, collection string) ([]Entry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.config.Table),
		IndexName:              aws.String(s.config.CollectionIndex),
		KeyConditionExpression: aws.String("#collection = :collection"),
		FilterExpression:       aws.String(notDeletedExpr),
		ExpressionAttributeNames: map[string]string{
			"#collection": "collection",
			"#ttl":        "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":collection": &types.AttributeValueMemberS{Value: collection},
			":now":        nowAttr(),
		},
	}

	var entries []Entry
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query collection %q: %w", collection, err)
		}
		for _, item := range page.Items {
			entries = append(entries, entryFromItem(item))
		}
	}
	return entries, nil
}

// ByPrefix returns all live documents whose id starts with prefix.
func (s *Source) ByPrefix(ctx context.Context, prefix string) ([]Entry, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.config.Table),
		FilterExpression: aws.String("begins_with(id, :prefix) AND (" + notDeletedExpr + ")"),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: prefix},
			":now":    nowAttr(),
		},
	}
	return s.scan(ctx, input)
}

// All returns every live document in the table.
func (s *Source) All(ctx context.Context) ([]Entry, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.config.Table),
		FilterExpression: aws.String(notDeletedExpr),
		ExpressionAttributeNames: map[string]string{
			"#ttl": "ttl",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": nowAttr(),
		},
	}
	return s.scan(ctx, input)
}

func (s *Source) scan(ctx context.Context, input *dynamodb.ScanInput) ([]Entry, error) {
	var entries []Entry
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.config.Table, err)
		}
		for _, item := range page.Items {
			entries = append(entries, entryFromItem(item))
		}
	}
	return entries, nil
}

// notDeletedExpr excludes soft-deleted items. Use with #ttl bound to "ttl"
// and :now bound to the current epoch second.
const notDeletedExpr = "attribute_not_exists(#ttl) OR #ttl > :now"

func nowAttr() types.AttributeValue {
	return &types.AttributeValueMemberN{
		Value: strconv.FormatInt(time.Now().Unix(), 10),
	}
}

// IsDeleted checks if an item has an expired TTL (is soft-deleted).
func IsDeleted(item map[string]types.AttributeValue) bool {
	ttlAttr, exists := item["ttl"]
	if !exists {
		return false
	}
	ttlNum, ok := ttlAttr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(ttlNum.Value, 10, 64)
	if err != nil {
		return false
	}
	return ttl <= time.Now().Unix()
}

func entryFromItem(item map[string]types.AttributeValue) Entry {
	e := Entry{Body: documentBody(item)}
	if v, ok := item["id"].(*types.AttributeValueMemberS); ok {
		e.ID = v.Value
	}
	return e
}

func documentBody(item map[string]types.AttributeValue) types.AttributeValue {
	if body, ok := item["body"]; ok {
		return body
	}
	return &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
}
