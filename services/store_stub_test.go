package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// stubStore is a scripted DynamoAPI. Reads serve canned documents, writes
// are recorded, and the optional error hooks inject failures so the
// state-machine error branches can be driven without DynamoDB.
type stubStore struct {
	// One document per table, returned by GetItem.
	items map[string]map[string]types.AttributeValue
	// One slice per table, copied into ScanWithFilter results.
	scans map[string]interface{}

	putErr    func(table string, item interface{}) error
	updateErr func(table, updateExpr, conditionExpr string, key map[string]types.AttributeValue) error

	puts    []stubPut
	updates []stubUpdate
}

type stubPut struct {
	table     string
	item      interface{}
	condition string
}

type stubUpdate struct {
	table      string
	updateExpr string
	condition  string
	key        map[string]types.AttributeValue
	values     map[string]types.AttributeValue
}

func (s *stubStore) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	item, ok := s.items[tableName]
	if !ok {
		return nil, ErrNotFound
	}
	return item, nil
}

func (s *stubStore) PutItem(ctx context.Context, tableName string, item interface{}) error {
	return s.PutItemWithCondition(ctx, tableName, item, "", nil, nil)
}

func (s *stubStore) PutItemWithCondition(ctx context.Context, tableName string, item interface{}, conditionExpression string, expressionAttributeValues map[string]types.AttributeValue, expressionAttributeNames map[string]string) error {
	s.puts = append(s.puts, stubPut{table: tableName, item: item, condition: conditionExpression})
	if s.putErr != nil {
		return s.putErr(tableName, item)
	}
	return nil
}

func (s *stubStore) UpdateItem(ctx context.Context, tableName string, updateExpression string, key map[string]types.AttributeValue, expressionAttributeValues map[string]types.AttributeValue, expressionAttributeNames map[string]string) (map[string]types.AttributeValue, error) {
	return s.UpdateItemWithCondition(ctx, tableName, updateExpression, key, expressionAttributeValues, expressionAttributeNames, "")
}

func (s *stubStore) UpdateItemWithCondition(ctx context.Context, tableName string, updateExpression string, key map[string]types.AttributeValue, expressionAttributeValues map[string]types.AttributeValue, expressionAttributeNames map[string]string, conditionExpression string) (map[string]types.AttributeValue, error) {
	s.updates = append(s.updates, stubUpdate{
		table:      tableName,
		updateExpr: updateExpression,
		condition:  conditionExpression,
		key:        key,
		values:     expressionAttributeValues,
	})
	if s.updateErr != nil {
		if err := s.updateErr(tableName, updateExpression, conditionExpression, key); err != nil {
			return nil, err
		}
	}
	return map[string]types.AttributeValue{}, nil
}

func (s *stubStore) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) error {
	return nil
}

// ScanWithFilter copies the canned slice into result through a JSON round
// trip; the model structs carry matching json tags. The filter callback is
// ignored, the canned slice stands for the post-filter view.
func (s *stubStore) ScanWithFilter(ctx context.Context, tableName string, filterFunc func(map[string]types.AttributeValue) bool, result interface{}) error {
	canned, ok := s.scans[tableName]
	if !ok {
		return nil
	}
	raw, err := json.Marshal(canned)
	if err != nil {
		return fmt.Errorf("stub scan marshal: %w", err)
	}
	return json.Unmarshal(raw, result)
}

func (s *stubStore) BatchWriteItems(ctx context.Context, tableName string, writeRequests []types.WriteRequest) error {
	return nil
}

// avString unwraps a string attribute recorded by the stub.
func avString(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// keyString unwraps a string key attribute from a recorded update.
func keyString(key map[string]types.AttributeValue, field string) string {
	return avString(key[field])
}
