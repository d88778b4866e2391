package models

import (
	"fmt"
	"time"
)

type Kind int

const (
	Image Kind = iota
	Video
)

func (k Kind) String() string {
	if k == Video {
		return "video"
	}
	return "image"
}

type Media struct {
	Path string
	Kind Kind
	Size int64
	Err  error
}

// SizeMB returns the file size in mebibytes.
func (m Media) SizeMB() float64 {
	return float64(m.Size) / (1024 * 1024)
}

type Decision int

const (
	Kept Decision = iota
	Deleted
)

func (d Decision) String() string {
	switch d {
	case Kept:
		return "Kept"
	case Deleted:
		return "Deleted"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// LogEntry is one line of the review log.
type LogEntry struct {
	Timestamp time.Time
	Decision  Decision
	Path      string
}

const TimestampLayout = "2006-01-02 15:04:05.000000"

func (e LogEntry) String() string {
	return fmt.Sprintf("%s: %s - %s", e.Timestamp.Format(TimestampLayout), e.Decision, e.Path)
}
