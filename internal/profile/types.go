package profile

import "errors"

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// User is a CodeGram member. Exactly one user is the current user.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Bio       string `json:"bio,omitempty"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	Verified  bool   `json:"verified"`
}

// Profile is a user together with activity counts.
type Profile struct {
	User
	Posts     int  `json:"posts"`
	Snippets  int  `json:"snippets"`
	Docs      int  `json:"docs"`
	IsCurrent bool `json:"is_current"`
}

// Notifications holds the notification toggles.
type Notifications struct {
	Likes    bool `json:"likes"`
	Comments bool `json:"comments"`
	Follows  bool `json:"follows"`
	Messages bool `json:"messages"`
}

// Privacy holds the privacy toggles.
type Privacy struct {
	ProfilePublic bool `json:"profile_public"`
	ShowActivity  bool `json:"show_activity"`
	AllowMessages bool `json:"allow_messages"`
}

// Settings is the current user's preferences. Every toggle defaults to on.
type Settings struct {
	Notifications Notifications `json:"notifications"`
	Privacy       Privacy       `json:"privacy"`
}

// SettingsPatch is a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	Notifications struct {
		Likes    *bool `json:"likes"`
		Comments *bool `json:"comments"`
		Follows  *bool `json:"follows"`
		Messages *bool `json:"messages"`
	} `json:"notifications"`
	Privacy struct {
		ProfilePublic *bool `json:"profile_public"`
		ShowActivity  *bool `json:"show_activity"`
		AllowMessages *bool `json:"allow_messages"`
	} `json:"privacy"`
}

// settingKeys lists every stored toggle in a stable order.
var settingKeys = []string{
	"notify_likes",
	"notify_comments",
	"notify_follows",
	"notify_messages",
	"profile_public",
	"show_activity",
	"allow_messages",
}

func (s *Settings) fields() map[string]*bool {
	return map[string]*bool{
		"notify_likes":    &s.Notifications.Likes,
		"notify_comments": &s.Notifications.Comments,
		"notify_follows":  &s.Notifications.Follows,
		"notify_messages": &s.Notifications.Messages,
		"profile_public":  &s.Privacy.ProfilePublic,
		"show_activity":   &s.Privacy.ShowActivity,
		"allow_messages":  &s.Privacy.AllowMessages,
	}
}

func (p *SettingsPatch) fields() map[string]*bool {
	return map[string]*bool{
		"notify_likes":    p.Notifications.Likes,
		"notify_comments": p.Notifications.Comments,
		"notify_follows":  p.Notifications.Follows,
		"notify_messages": p.Notifications.Messages,
		"profile_public":  p.Privacy.ProfilePublic,
		"show_activity":   p.Privacy.ShowActivity,
		"allow_messages":  p.Privacy.AllowMessages,
	}
}
