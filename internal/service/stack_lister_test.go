package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gophercloud/gophercloud/v2/openstack/orchestration/v1/stacks"
	"github.com/lucksec/jobstatus/internal/config"
	"github.com/lucksec/jobstatus/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterStacks(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	listed := []stacks.ListedStack{
		{ID: "1", Name: "prefix-1", Status: "CREATE_COMPLETE", CreationTime: created, Tags: []string{"a"}},
		{ID: "2", Name: "prefix-2", Status: "DELETE_COMPLETE"},
		{ID: "3", Name: "prefix-3", Status: "CREATE_IN_PROGRESS"},
		{ID: "4", Name: "prefix-4", Status: "DELETE_FAILED"},
		{ID: "5", Name: "prefix-5", Status: "RESUME_COMPLETE"},
	}

	got := filterStacks(listed)
	require.Len(t, got, 3)
	assert.Equal(t, "prefix-1", got[0].Name)
	assert.Equal(t, created, got[0].CreationTime)
	assert.Equal(t, []string{"a"}, got[0].Tags)
	assert.Equal(t, "prefix-4", got[1].Name)
	assert.Equal(t, "prefix-5", got[2].Name)
}

// openstackServer 模拟 Keystone v3 认证和 Heat 栈列表
func openstackServer(t *testing.T, authCalls, listCalls *int32) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v3/auth/tokens":
			atomic.AddInt32(authCalls, 1)
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Subject-Token", "os-token")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"token": {
				"expires_at": "2099-01-01T00:00:00.000000Z",
				"issued_at": "2024-01-01T00:00:00.000000Z",
				"methods": ["password"],
				"catalog": [{
					"id": "heat-id",
					"type": "orchestration",
					"name": "heat",
					"endpoints": [{
						"id": "ep-1",
						"interface": "public",
						"region": "RegionOne",
						"region_id": "RegionOne",
						"url": "%s/heat/v1/proj"
					}]
				}]
			}}`, server.URL)
		case r.Method == http.MethodGet && r.URL.Path == "/heat/v1/proj/stacks":
			atomic.AddInt32(listCalls, 1)
			if r.Header.Get("X-Auth-Token") != "os-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"stacks": [
				{"id": "a", "stack_name": "prefix-123", "stack_status": "CREATE_COMPLETE",
				 "creation_time": "2024-03-01T10:00:00Z", "tags": ["t1"], "links": []},
				{"id": "b", "stack_name": "prefix-999", "stack_status": "DELETE_COMPLETE",
				 "creation_time": "2024-03-02T10:00:00Z", "tags": null, "links": []},
				{"id": "c", "stack_name": "prefix-456", "stack_status": "UPDATE_FAILED",
				 "creation_time": "2024-03-03T10:00:00Z", "tags": null, "links": []}
			]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server
}

func TestHeatStackListerListsAndFilters(t *testing.T) {
	var authCalls, listCalls int32
	server := openstackServer(t, &authCalls, &listCalls)
	defer server.Close()

	lister := NewStackLister(config.OpenStackConfig{
		AuthURL:        server.URL + "/v3",
		Username:       "reporter",
		Password:       "hunter2",
		ProjectID:      "proj",
		UserDomainName: "default",
	}, &http.Client{Timeout: 5 * time.Second}, logger.NewNop())

	got, err := lister.ListStacks(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "prefix-123", got[0].Name)
	assert.Equal(t, "CREATE_COMPLETE", got[0].Status)
	assert.Equal(t, []string{"t1"}, got[0].Tags)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), got[0].CreationTime.UTC())
	assert.Equal(t, "prefix-456", got[1].Name)
	assert.Empty(t, got[1].Tags)

	// 第二次列出复用已认证的会话
	_, err = lister.ListStacks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&authCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&listCalls))
}

func TestHeatStackListerAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	lister := NewStackLister(config.OpenStackConfig{
		AuthURL:   server.URL + "/v3",
		Username:  "reporter",
		Password:  "wrong",
		ProjectID: "proj",
	}, nil, logger.NewNop())

	_, err := lister.ListStacks(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenStack 认证失败")
}
