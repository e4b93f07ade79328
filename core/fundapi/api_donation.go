package fundapi

import (
	"context"
	"net/url"

	coreerrors "github.com/dnslin/crowdfund-desktop/core/errors"
	"github.com/dnslin/crowdfund-desktop/core/model"
)

// PathDonations 为捐款端点。
const PathDonations = "donations/"

// ErrInvalidAmount 标记捐款金额不是正数。
var ErrInvalidAmount = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 捐款金额必须为正数")

// ListDonations 获取捐款记录，slug 非空时按项目过滤。
func (c *Client) ListDonations(ctx context.Context, projectSlug string) (*DonationPage, error) {
	query := url.Values{}
	if projectSlug != "" {
		query.Set("project", projectSlug)
	}
	var page DonationPage
	if err := c.get(ctx, PathDonations, query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateDonation 发起捐款，金额在发出请求前做正数校验。
func (c *Client) CreateDonation(ctx context.Context, req DonationRequest) (*model.Donation, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.ProjectSlug == "" {
		return nil, coreerrors.New(coreerrors.ErrCodeInvalidArgument, "fundapi: 项目 slug 为空")
	}
	var donation model.Donation
	if err := c.send(ctx, "POST", PathDonations, req, &donation); err != nil {
		return nil, err
	}
	return &donation, nil
}
