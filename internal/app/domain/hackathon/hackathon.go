// Package hackathon describes the static hackathon catalog served by the
// explore endpoint.
package hackathon

// Hackathon is one catalog entry.
type Hackathon struct {
	ID           int      `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Platform     string   `json:"platform" yaml:"platform"`
	Mode         string   `json:"mode" yaml:"mode"`
	Tags         []string `json:"tags" yaml:"tags"`
	Featured     bool     `json:"featured" yaml:"featured"`
	DaysLeft     int      `json:"daysLeft" yaml:"days_left"`
	Prize        string   `json:"prize" yaml:"prize"`
	Participants int      `json:"participants" yaml:"participants"`
	Deadline     string   `json:"deadline" yaml:"deadline"`
	Description  string   `json:"description" yaml:"description"`
}

// Pagination is the page envelope returned with search results.
type Pagination struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// Page is one page of search results.
type Page struct {
	Data       []Hackathon `json:"data"`
	Pagination Pagination  `json:"pagination"`
}
