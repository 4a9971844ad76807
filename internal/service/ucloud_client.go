package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lucksec/jobstatus/internal/domain"
	"github.com/lucksec/jobstatus/internal/logger"
)

// JobFinder 根据栈查找对应作业
type JobFinder interface {
	// FindJob 查找栈对应的作业，找不到时返回 (nil, nil)
	FindJob(ctx context.Context, stack domain.Stack) (*domain.Job, error)
}

// UCloudClient UCloud 作业接口客户端
type UCloudClient interface {
	JobFinder

	// RetrieveJob 按 ID 直接获取作业，非 200 响应视为未找到
	RetrieveJob(ctx context.Context, id string) (*domain.Job, error)

	// BrowseJobs 按 provider ID 过滤查询作业
	BrowseJobs(ctx context.Context, providerID string) ([]domain.Job, error)
}

// ucloudClient UCloud 客户端实现
type ucloudClient struct {
	baseURL     string
	stackPrefix string
	tokens      TokenProvider
	httpClient  *http.Client
	log         logger.Logger
}

// NewUCloudClient 创建 UCloud 客户端
func NewUCloudClient(baseURL, stackPrefix string, tokens TokenProvider, httpClient *http.Client, log logger.Logger) UCloudClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ucloudClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		stackPrefix: stackPrefix,
		tokens:      tokens,
		httpClient:  httpClient,
		log:         log,
	}
}

// JobIDFromStack 去掉栈名前缀得到作业 ID，前缀不匹配时原样返回
func JobIDFromStack(stackName, prefix string) string {
	return strings.TrimPrefix(stackName, prefix)
}

// FindJob 先按 ID 直接获取，未找到再用 browse 查询并取第一条
func (c *ucloudClient) FindJob(ctx context.Context, stack domain.Stack) (*domain.Job, error) {
	jobID := JobIDFromStack(stack.Name, c.stackPrefix)

	job, err := c.RetrieveJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job != nil {
		return job, nil
	}

	jobs, err := c.BrowseJobs(ctx, jobID)
	if err != nil {
		return nil, err
	}
	c.log.Debug("browse 作业 %s 返回 %d 条", jobID, len(jobs))
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

// RetrieveJob 按 ID 获取作业
func (c *ucloudClient) RetrieveJob(ctx context.Context, id string) (*domain.Job, error) {
	params := jobQueryParams()
	params.Set("id", id)

	status, body, err := c.callAPI(ctx, "/api/jobs/control/retrieve", params)
	if err != nil {
		return nil, fmt.Errorf("获取作业 %s 失败: %w", id, err)
	}
	if status != http.StatusOK {
		c.log.Debug("作业 %s 未找到 (HTTP %d)", id, status)
		return nil, nil
	}

	var job domain.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("解析作业 %s 失败: %w", id, err)
	}
	return &job, nil
}

// BrowseJobs 按 provider ID 查询作业
func (c *ucloudClient) BrowseJobs(ctx context.Context, providerID string) ([]domain.Job, error) {
	params := jobQueryParams()
	params.Set("filterProviderIds", providerID)

	status, body, err := c.callAPI(ctx, "/api/jobs/control/browse", params)
	if err != nil {
		return nil, fmt.Errorf("查询作业 %s 失败: %w", providerID, err)
	}
	if status != http.StatusOK {
		c.log.Debug("browse 作业 %s 未找到 (HTTP %d)", providerID, status)
		return nil, nil
	}

	var page struct {
		Items []domain.Job `json:"items"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("解析作业列表失败: %w", err)
	}
	return page.Items, nil
}

// jobQueryParams 只包含产品信息，其余附加信息全部排除；未设置的过滤条件不发送
func jobQueryParams() url.Values {
	params := url.Values{}
	params.Set("includeProduct", "true")
	params.Set("includeOthers", "false")
	params.Set("includeUpdates", "false")
	params.Set("includeSupport", "false")
	return params
}

// callAPI 携带访问令牌发起 GET 请求，返回状态码和响应体
func (c *ucloudClient) callAPI(ctx context.Context, path string, params url.Values) (int, []byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return resp.StatusCode, body, nil
}
