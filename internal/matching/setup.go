package matching

import (
	"strings"

	"github.com/sridarsri23/BrainBridge/internal/job"
)

// WorkSetup is what a posting says about where the work happens.
type WorkSetup struct {
	// Remote is true for remote and hybrid roles.
	Remote bool `json:"remote"`
	Onsite bool `json:"onsite"`
	Hybrid bool `json:"hybrid"`
}

// OnsiteOnly reports an on-site role with no remote option.
func (s WorkSetup) OnsiteOnly() bool {
	return s.Onsite && !s.Remote
}

func (s WorkSetup) String() string {
	switch {
	case s.Hybrid:
		return "hybrid"
	case s.Remote:
		return "remote"
	case s.Onsite:
		return "on-site"
	default:
		return "unspecified"
	}
}

// DetectWorkSetup classifies a posting. A location of exactly "remote" or
// "hybrid" decides on its own. Otherwise remote and on-site keywords are
// looked for independently in the posting text and a posting carrying both
// is treated as hybrid.
func DetectWorkSetup(p job.Posting) WorkSetup {
	switch strings.ToLower(strings.TrimSpace(p.Location)) {
	case "remote":
		return WorkSetup{Remote: true}
	case "hybrid":
		return WorkSetup{Remote: true, Hybrid: true}
	}

	text := jobText(p)
	remote := containsAny(text, remoteWords)
	onsite := containsAny(text, onsiteWords)

	return WorkSetup{
		Remote: remote,
		Onsite: onsite,
		Hybrid: strings.Contains(text, "hybrid") || (remote && onsite),
	}
}
