package model

import "time"

// Trigger sources.
const (
	SourceCron    = "cron"
	SourceHTTP    = "http"
	SourceStartup = "startup"
)

// Trigger asks the job worker to perform one analysis run.
type Trigger struct {
	ID     string    // unique id, used in logs
	Source string    // cron, http or startup
	At     time.Time // enqueue time
}
