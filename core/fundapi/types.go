package fundapi

import (
	"encoding/json"

	"github.com/dnslin/crowdfund-desktop/core/model"
)

// LoginResult 为登录接口的成功响应。
type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// RegisterRequest 为注册接口的请求体。
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// RegisterResult 为注册接口的响应。部分后端在注册成功后直接签发令牌，
// 此时 Token/User 非空；默认流程只返回提示信息。
type RegisterResult struct {
	Detail string      `json:"detail,omitempty"`
	Token  string      `json:"token,omitempty"`
	User   *model.User `json:"user,omitempty"`
}

// ProfileUpdate 为资料更新的请求体，空字段不提交。
type ProfileUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// ProjectDraft 为创建/更新项目的请求体。
type ProjectDraft struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url,omitempty"`
	GoalAmount  float64 `json:"goal_amount"`
	CategoryID  int64   `json:"category"`
	EndDate     string  `json:"end_date,omitempty"`
}

// DonationRequest 为发起捐款的请求体。
type DonationRequest struct {
	ProjectSlug string  `json:"project"`
	Amount      float64 `json:"amount"`
	Message     string  `json:"message,omitempty"`
	Anonymous   bool    `json:"anonymous,omitempty"`
}

// ProjectPage 兼容分页信封与裸数组两种项目列表响应。
type ProjectPage struct {
	Count   int             `json:"count"`
	Results []model.Project `json:"results"`
}

// UnmarshalJSON 允许响应为 DRF 分页信封或直接的项目数组。
func (p *ProjectPage) UnmarshalJSON(data []byte) error {
	var bare []model.Project
	if err := json.Unmarshal(data, &bare); err == nil {
		p.Count = len(bare)
		p.Results = bare
		return nil
	}
	type envelope ProjectPage
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	p.Count = env.Count
	p.Results = env.Results
	if p.Count == 0 {
		p.Count = len(p.Results)
	}
	return nil
}

// DonationPage 兼容分页信封与裸数组两种捐款列表响应。
type DonationPage struct {
	Count   int              `json:"count"`
	Results []model.Donation `json:"results"`
}

// UnmarshalJSON 同 ProjectPage。
func (p *DonationPage) UnmarshalJSON(data []byte) error {
	var bare []model.Donation
	if err := json.Unmarshal(data, &bare); err == nil {
		p.Count = len(bare)
		p.Results = bare
		return nil
	}
	type envelope DonationPage
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	p.Count = env.Count
	p.Results = env.Results
	if p.Count == 0 {
		p.Count = len(p.Results)
	}
	return nil
}
