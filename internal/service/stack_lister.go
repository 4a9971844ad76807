package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/openstack/orchestration/v1/stacks"
	"github.com/lucksec/jobstatus/internal/config"
	"github.com/lucksec/jobstatus/internal/domain"
	"github.com/lucksec/jobstatus/internal/logger"
)

// StackLister 列出编排服务中的栈
type StackLister interface {
	// ListStacks 返回状态在 domain.ReportedStatuses 中的栈，顺序与编排服务一致
	ListStacks(ctx context.Context) ([]domain.Stack, error)
}

// heatStackLister 基于 OpenStack Heat 的实现
type heatStackLister struct {
	authOpts   gophercloud.AuthOptions
	region     string
	httpClient *http.Client
	log        logger.Logger

	// 每个 lister 只认证一次
	orchestration *gophercloud.ServiceClient
}

// NewStackLister 创建 Heat 栈列表器
func NewStackLister(cfg config.OpenStackConfig, httpClient *http.Client, log logger.Logger) StackLister {
	return &heatStackLister{
		authOpts: gophercloud.AuthOptions{
			IdentityEndpoint: cfg.AuthURL,
			Username:         cfg.Username,
			Password:         cfg.Password,
			TenantID:         cfg.ProjectID,
			DomainName:       cfg.UserDomainName,
		},
		region:     cfg.Region,
		httpClient: httpClient,
		log:        log,
	}
}

// ListStacks 列出栈并按状态过滤
func (l *heatStackLister) ListStacks(ctx context.Context) ([]domain.Stack, error) {
	client, err := l.client(ctx)
	if err != nil {
		return nil, err
	}

	pages, err := stacks.List(client, nil).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("列出栈失败: %w", err)
	}
	listed, err := stacks.ExtractStacks(pages)
	if err != nil {
		return nil, fmt.Errorf("解析栈列表失败: %w", err)
	}

	result := filterStacks(listed)
	l.log.Info("共找到 %d 个栈（过滤前 %d 个）", len(result), len(listed))
	return result, nil
}

// client 认证并创建 orchestration v1 客户端
func (l *heatStackLister) client(ctx context.Context) (*gophercloud.ServiceClient, error) {
	if l.orchestration != nil {
		return l.orchestration, nil
	}

	provider, err := openstack.NewClient(l.authOpts.IdentityEndpoint)
	if err != nil {
		return nil, fmt.Errorf("创建 OpenStack 客户端失败: %w", err)
	}
	if l.httpClient != nil {
		provider.HTTPClient = *l.httpClient
	}
	if err := openstack.Authenticate(ctx, provider, l.authOpts); err != nil {
		return nil, fmt.Errorf("OpenStack 认证失败: %w", err)
	}
	l.log.Debug("已获取 OpenStack 会话: %s", l.authOpts.IdentityEndpoint)

	orchestration, err := openstack.NewOrchestrationV1(provider, gophercloud.EndpointOpts{Region: l.region})
	if err != nil {
		return nil, fmt.Errorf("创建 Heat 客户端失败: %w", err)
	}
	l.orchestration = orchestration
	return orchestration, nil
}

// filterStacks 只保留报表关注的状态，已删除的栈被排除
func filterStacks(listed []stacks.ListedStack) []domain.Stack {
	result := make([]domain.Stack, 0, len(listed))
	for _, s := range listed {
		if !domain.IsReportedStatus(s.Status) {
			continue
		}
		result = append(result, domain.Stack{
			ID:           s.ID,
			Name:         s.Name,
			Status:       s.Status,
			CreationTime: s.CreationTime,
			Tags:         s.Tags,
		})
	}
	return result
}
