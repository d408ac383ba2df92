// Package redis provides Redis-backed persistence for workflows, one JSON
// document per workflow keyed under the flowpad:workflows: prefix.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flowpad/flowpad/pkg/models"
	"github.com/flowpad/flowpad/pkg/persistence"
)

const keyPrefix = "flowpad:workflows:"

const connectTimeout = 5 * time.Second

// Persistence implements the persistence.Persistence interface on top of a
// Redis instance.
type Persistence struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPersistence connects to the Redis instance described by redisURL
// (redis://[user:password@]host:port[/db]) and verifies the connection.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Persistence{client: client, logger: logger}, nil
}

// Close closes the underlying Redis client.
func (rp *Persistence) Close(_ context.Context) error {
	return rp.client.Close()
}

// HealthCheck pings the Redis instance.
func (rp *Persistence) HealthCheck(ctx context.Context) error {
	return rp.client.Ping(ctx).Err()
}

// Workflows returns every stored workflow, newest first.
func (rp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	keys := make([]string, 0)

	iter := rp.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan workflow keys: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(keys))

	if len(keys) == 0 {
		return workflows, nil
	}

	values, err := rp.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflows: %w", err)
	}

	for i, value := range values {
		body, ok := value.(string)
		if !ok {
			// Key expired between SCAN and MGET.
			rp.logger.WarnContext(ctx, "Workflow disappeared between scan and fetch", "key", keys[i])

			continue
		}

		var workflow models.Workflow

		if err := json.Unmarshal([]byte(body), &workflow); err != nil {
			workflowID := strings.TrimPrefix(keys[i], keyPrefix)

			return nil, persistence.NewWorkflowError("GetAll", workflowID, fmt.Errorf("%w: %w", persistence.ErrInvalidDocument, err))
		}

		workflows = append(workflows, &workflow)
	}

	sort.SliceStable(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// WorkflowByID retrieves a workflow by its ID. A missing workflow is
// reported as (nil, nil), not as an error.
func (rp *Persistence) WorkflowByID(ctx context.Context, workflowID string) (*models.Workflow, error) {
	body, err := rp.client.Get(ctx, workflowKey(workflowID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", workflowID, fmt.Errorf("%w: %w", persistence.ErrInvalidDocument, err))
	}

	return &workflow, nil
}

// SaveWorkflow stores a workflow document, assigning an ID and stamping
// timestamps as needed.
func (rp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	if err := rp.client.Set(ctx, workflowKey(workflow.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// DeleteWorkflow removes a workflow by its ID. Deleting a missing
// workflow is not an error.
func (rp *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	if err := rp.client.Del(ctx, workflowKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func workflowKey(workflowID string) string {
	return keyPrefix + workflowID
}
