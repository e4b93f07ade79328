package model

// Donation 描述一笔捐款记录。
type Donation struct {
	ID           int64   `json:"id"`
	ProjectSlug  string  `json:"project"`
	ProjectTitle string  `json:"project_title,omitempty"`
	Amount       float64 `json:"amount"`
	Donor        string  `json:"donor,omitempty"`
	Message      string  `json:"message,omitempty"`
	Anonymous    bool    `json:"anonymous,omitempty"`
	CreatedAt    string  `json:"created_at,omitempty"`
}
