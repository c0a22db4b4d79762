package domain

import "time"

const (
	ColorOpen   = 0x3498DB
	ColorPassed = 0x2ECC71
	ColorFailed = 0xE74C3C
	ColorTied   = 0xE67E22
)

type DisplayAuthor struct {
	Name    string
	IconURL string
}

type DisplayField struct {
	Name   string
	Value  string
	Inline bool
}

// DisplayPayload is the platform-neutral rendering of a poll message.
type DisplayPayload struct {
	Title       string
	Description string
	Color       int
	Author      DisplayAuthor
	Fields      []DisplayField
	Footer      string
	Timestamp   time.Time
}
