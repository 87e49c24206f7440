package domain

import "time"

// TreeSummary holds working tree statistics for listings
type TreeSummary struct {
	Additions    int       // Lines added in the working tree
	Ahead        int       // Commits ahead of the tracking branch
	Behind       int       // Commits behind the tracking branch
	ChangedFiles int       // Number of changed files in the working tree
	Deletions    int       // Lines deleted in the working tree
	FetchedAt    time.Time // When these stats were collected
}
