package model

// Category 描述项目分类。
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Project 描述众筹项目。
type Project struct {
	ID            int64    `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"image_url,omitempty"`
	GoalAmount    float64  `json:"goal_amount"`
	CurrentAmount float64  `json:"current_amount"`
	Category      Category `json:"category"`
	Owner         string   `json:"owner"`
	CreatedAt     string   `json:"created_at,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	Featured      bool     `json:"featured"`
	Active        bool     `json:"is_active"`
}

// Progress 返回筹款进度（0~1，目标为零时返回 0）。
func (p *Project) Progress() float64 {
	if p == nil || p.GoalAmount <= 0 {
		return 0
	}
	ratio := p.CurrentAmount / p.GoalAmount
	if ratio > 1 {
		return 1
	}
	return ratio
}
