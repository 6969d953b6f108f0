package domain

import "time"

// WatchPosition is a resume point for one title version. It is written by
// the API layer on behalf of UI clients; the playback session itself
// never persists position.
type WatchPosition struct {
	TitleID   string    `json:"titleId"`
	VersionID VersionID `json:"versionId"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	TitleName string    `json:"titleName"`
	UpdatedAt time.Time `json:"updatedAt"`
}
