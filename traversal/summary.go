package traversal

import "fmt"

// Summary counts what a run did
type Summary struct {
	Seen             int
	Skipped          int // already visited
	Processed        int // classified and committed
	Bookmarked       int
	ExtractionErrors int
	ServiceErrors    int
	DispatchFailures int
	Interrupted      bool
	Reason           string
}

func (s Summary) String() string {
	return fmt.Sprintf("seen %d, already visited %d, processed %d, bookmarked %d, extraction errors %d, service errors %d, bookmark failures %d (%s)",
		s.Seen, s.Skipped, s.Processed, s.Bookmarked, s.ExtractionErrors, s.ServiceErrors, s.DispatchFailures, s.Reason)
}
