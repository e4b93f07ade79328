package fundapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	coreerrors "github.com/dnslin/crowdfund-desktop/core/errors"
	"github.com/dnslin/crowdfund-desktop/core/model"
)

// 项目相关端点。
const (
	PathProjects   = "project/"
	PathProjectOps = "projects/"
	PathMyProjects = "projects/my-projects/"
	PathCategories = "categories/"
)

// ListOption 配置项目列表查询。
type ListOption func(url.Values)

// WithListPagination 设置页码与每页数量。
func WithListPagination(page, limit int) ListOption {
	return func(q url.Values) {
		if page > 0 {
			q.Set("page", strconv.Itoa(page))
		}
		if limit > 0 {
			q.Set("limit", strconv.Itoa(limit))
		}
	}
}

// WithListCategory 按分类过滤。
func WithListCategory(slug string) ListOption {
	return func(q url.Values) {
		if slug != "" {
			q.Set("category", slug)
		}
	}
}

// WithListFeatured 仅保留精选项目。
func WithListFeatured() ListOption {
	return func(q url.Values) {
		q.Set("featured", "true")
	}
}

// WithListSearch 按关键字搜索。
func WithListSearch(keyword string) ListOption {
	return func(q url.Values) {
		if keyword != "" {
			q.Set("search", keyword)
		}
	}
}

// ListProjects 获取项目列表。
func (c *Client) ListProjects(ctx context.Context, opts ...ListOption) (*ProjectPage, error) {
	query := url.Values{}
	for _, opt := range opts {
		if opt != nil {
			opt(query)
		}
	}
	var page ProjectPage
	if err := c.get(ctx, PathProjects, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProject 按 slug 获取项目详情。
func (c *Client) GetProject(ctx context.Context, slug string) (*model.Project, error) {
	if slug == "" {
		return nil, coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 项目 slug 为空")
	}
	var project model.Project
	if err := c.get(ctx, fmt.Sprintf("%s%s/", PathProjectOps, slug), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject 创建项目，需要已认证会话。
func (c *Client) CreateProject(ctx context.Context, draft ProjectDraft) (*model.Project, error) {
	var project model.Project
	if err := c.send(ctx, "POST", PathProjectOps, draft, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject 更新项目，需要项目所有者会话。
func (c *Client) UpdateProject(ctx context.Context, slug string, draft ProjectDraft) (*model.Project, error) {
	if slug == "" {
		return nil, coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 项目 slug 为空")
	}
	var project model.Project
	if err := c.send(ctx, "PUT", fmt.Sprintf("%s%s/", PathProjectOps, slug), draft, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// MyProjects 获取当前用户创建的项目。
func (c *Client) MyProjects(ctx context.Context) (*ProjectPage, error) {
	var page ProjectPage
	if err := c.get(ctx, PathMyProjects, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Categories 获取全部项目分类。
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.get(ctx, PathCategories, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
