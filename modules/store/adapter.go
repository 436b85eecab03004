package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// storeAdapter wraps ServiceContainer for type-safe cross-module communication.
type storeAdapter struct {
	container mono.ServiceContainer
}

// NewStoreAdapter creates a new adapter for store services.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewStoreAdapter(container mono.ServiceContainer) StorePort {
	if container == nil {
		panic("store adapter requires non-nil ServiceContainer")
	}
	return &storeAdapter{container: container}
}

// LoadTasks reads the stored collection via the load-tasks service.
func (a *storeAdapter) LoadTasks(ctx context.Context) (*LoadTasksResponse, error) {
	req := LoadTasksRequest{}
	var resp LoadTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"load-tasks",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("load-tasks service call failed: %w", err)
	}
	return &resp, nil
}

// SaveTasks writes the collection synchronously via the save-tasks service.
func (a *storeAdapter) SaveTasks(ctx context.Context, req *SaveTasksRequest) (*SaveTasksResponse, error) {
	var resp SaveTasksResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"save-tasks",
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("save-tasks service call failed: %w", err)
	}
	return &resp, nil
}
