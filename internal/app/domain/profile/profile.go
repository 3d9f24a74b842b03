// Package profile holds user profiles. Role is a tagged variant; see Role.
package profile

import "time"

// Profile is one row of user_profiles.
type Profile struct {
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name,omitempty"`
	Username     string    `json:"username,omitempty"`
	Headline     string    `json:"headline,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Location     string    `json:"location,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	ResumeURL    string    `json:"resume_url,omitempty"`
	Availability string    `json:"availability,omitempty"`
	Role         Role      `json:"role"`
	Skills       []string  `json:"skills"`
	CreatedAt    time.Time `json:"-"`
}

// DisplayName falls back to the username when no full name is set.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}
