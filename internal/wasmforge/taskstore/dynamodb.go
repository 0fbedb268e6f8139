// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
)

// DefaultTableName and DefaultRegion mirror the original service's constants.
const (
	DefaultTableName = "sfbank-blue-FaaSData"
	DefaultRegion    = "ap-northeast-2"
)

const itemType = "BuildTask"

// DynamoDBClient is the subset of the DynamoDB API this store needs, so it
// can be faked in tests without pulling in the full SDK client surface.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBStore is the Store implementation backed by DynamoDB, grounded on
// original_source/src/services/dynamodb.py's DynamoDBService.
type DynamoDBStore struct {
	client    DynamoDBClient
	tableName string
	logger    *slog.Logger
}

// NewDynamoDBStore constructs a DynamoDBStore against the given table.
func NewDynamoDBStore(client DynamoDBClient, tableName string, logger *slog.Logger) *DynamoDBStore {
	if tableName == "" {
		tableName = DefaultTableName
	}
	return &DynamoDBStore{client: client, tableName: tableName, logger: logger.With("component", "taskstore")}
}

func attrS(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func (s *DynamoDBStore) Create(ctx context.Context, t *task.Task) error {
	item := map[string]types.AttributeValue{
		"PK":             attrS(task.PartitionKey(t.WorkspaceID)),
		"SK":             attrS(task.SortKey(t.ID)),
		"Type":           attrS(itemType),
		"AppName":        attrS(t.AppName),
		"Status":         attrS(string(t.Status)),
		"SourceCodePath": attrS(t.SourceCodePath),
		"CreatedAt":      attrS(t.CreatedAt.Format(time.RFC3339Nano)),
		"UpdatedAt":      attrS(t.UpdatedAt.Format(time.RFC3339Nano)),
	}
	if t.WasmPath != "" {
		item["WasmPath"] = attrS(t.WasmPath)
	}
	if t.ImageURL != "" {
		item["ImageUrl"] = attrS(t.ImageURL)
	}
	if t.ErrorMessage != "" {
		item["ErrorMessage"] = attrS(t.ErrorMessage)
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("taskstore: create task %s/%s: %w", t.WorkspaceID, t.ID, err)
	}
	return nil
}

func (s *DynamoDBStore) UpdateStatus(ctx context.Context, workspaceID, taskID string, upd StatusUpdate) error {
	updateExpr := "SET #status = :status, UpdatedAt = :updated_at"
	names := map[string]string{"#status": "Status"}
	values := map[string]types.AttributeValue{
		":status":     attrS(string(upd.Status)),
		":updated_at": attrS(time.Now().UTC().Format(time.RFC3339Nano)),
	}
	if upd.WasmPath != nil {
		updateExpr += ", WasmPath = :wasm_path"
		values[":wasm_path"] = attrS(*upd.WasmPath)
	}
	if upd.ImageURL != nil {
		updateExpr += ", ImageUrl = :image_url"
		values[":image_url"] = attrS(*upd.ImageURL)
	}
	if upd.ErrorMessage != nil {
		updateExpr += ", ErrorMessage = :error_message"
		values[":error_message"] = attrS(*upd.ErrorMessage)
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": attrS(task.PartitionKey(workspaceID)),
			"SK": attrS(task.SortKey(taskID)),
		},
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("taskstore: update status %s/%s: %w", workspaceID, taskID, err)
	}
	return nil
}

func (s *DynamoDBStore) Get(ctx context.Context, workspaceID, taskID string) (*task.Task, error) {
	pks := []string{task.PartitionKey(workspaceID), task.LegacyPartitionKey(workspaceID)}
	sks := []string{task.SortKey(taskID), task.LegacySortKey(taskID)}

	for _, pk := range pks {
		for _, sk := range sks {
			out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
				TableName: aws.String(s.tableName),
				Key: map[string]types.AttributeValue{
					"PK": attrS(pk),
					"SK": attrS(sk),
				},
			})
			if err != nil {
				s.logger.Warn("get_item failed, trying next key variant", "pk", pk, "sk", sk, "error", err)
				continue
			}
			if len(out.Item) == 0 {
				continue
			}
			t, err := itemToTask(out.Item)
			if err != nil {
				return nil, fmt.Errorf("taskstore: decode item %s/%s: %w", workspaceID, taskID, err)
			}
			return t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *DynamoDBStore) ListByWorkspace(ctx context.Context, workspaceID string) ([]*task.Task, error) {
	var all []*task.Task
	pks := []string{task.PartitionKey(workspaceID), task.LegacyPartitionKey(workspaceID)}
	skPrefixes := []string{"build#", "BUILD#"}

	for _, pk := range pks {
		for _, prefix := range skPrefixes {
			out, err := s.client.Query(ctx, &dynamodb.QueryInput{
				TableName:              aws.String(s.tableName),
				KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk_prefix)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pk":        attrS(pk),
					":sk_prefix": attrS(prefix),
				},
			})
			if err != nil {
				s.logger.Warn("query failed, trying next key variant", "pk", pk, "sk_prefix", prefix, "error", err)
				continue
			}
			for _, item := range out.Items {
				t, err := itemToTask(item)
				if err != nil {
					s.logger.Warn("skipping malformed item", "error", err)
					continue
				}
				all = append(all, t)
			}
		}
	}
	return all, nil
}

// itemToTask decodes a DynamoDB item, accepting both this service's
// PascalCase attribute names and a core-service's snake_case variants, and
// applying the legacy status synonym table.
func itemToTask(item map[string]types.AttributeValue) (*task.Task, error) {
	get := func(pascal, snake string) string {
		if v, ok := item[pascal]; ok {
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				return s.Value
			}
		}
		if v, ok := item[snake]; ok {
			if s, ok := v.(*types.AttributeValueMemberS); ok {
				return s.Value
			}
		}
		return ""
	}

	pk := get("PK", "pk")
	sk := get("SK", "sk")
	workspaceID, ok := task.ParsePartitionKey(pk)
	if !ok {
		return nil, fmt.Errorf("taskstore: unrecognised PK %q", pk)
	}
	taskID, ok := task.ParseSortKey(sk)
	if !ok {
		return nil, fmt.Errorf("taskstore: unrecognised SK %q", sk)
	}

	statusRaw := get("Status", "status")
	if statusRaw == "" {
		statusRaw = string(task.StatusPending)
	}

	createdRaw := get("CreatedAt", "created_at")
	updatedRaw := get("UpdatedAt", "updated_at")
	createdAt, err := parseTimestamp(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("taskstore: parse CreatedAt: %w", err)
	}
	updatedAt, err := parseTimestamp(updatedRaw)
	if err != nil {
		return nil, fmt.Errorf("taskstore: parse UpdatedAt: %w", err)
	}

	appName := get("AppName", "app_name")
	if appName == "" {
		appName = "unknown"
	}

	return &task.Task{
		ID:             taskID,
		WorkspaceID:    workspaceID,
		AppName:        appName,
		Status:         task.NormalizeStatus(statusRaw),
		SourceCodePath: get("SourceCodePath", "source_code_path"),
		WasmPath:       get("WasmPath", "wasm_path"),
		ImageURL:       get("ImageUrl", "image_url"),
		ErrorMessage:   get("ErrorMessage", "error_message"),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
