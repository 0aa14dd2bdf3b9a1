package gitsource

import "time"

// CommitInfo contains metadata about a Git commit.
type CommitInfo struct {
	SHA        string    `json:"sha"`
	Author     string    `json:"author"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message"`
	Branch     string    `json:"branch"`
	Repository string    `json:"repository"`
}

// ShortSHA returns the first eight characters of the commit hash.
func (c *CommitInfo) ShortSHA() string {
	return shortSHA(c.SHA)
}

// PullResult describes what a pull changed.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	ChangedFiles []string
	HadChanges   bool
}

// RepositoryMetrics tracks Git operation timings and counts.
type RepositoryMetrics struct {
	CloneDuration   time.Duration
	PullDuration    time.Duration
	LastCommitSHA   string
	LastPullTime    time.Time
	FailedPulls     int64
	SuccessfulPulls int64
}

// PollerMetrics tracks poll outcomes.
type PollerMetrics struct {
	Polls             int64
	SuccessfulReloads int64
	FailedReloads     int64
	SkippedChanges    int64
	LastReloadTime    time.Time
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
