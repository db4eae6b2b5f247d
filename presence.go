package pchat

import "time"

type Presence struct {
	Identity    string    `json:"identity"`
	Connections int       `json:"connections"`
	Since       time.Time `json:"since"`
}
