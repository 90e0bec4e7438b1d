package approvals

import (
	"regexp"
	"strings"
	"time"
)

var decisionPattern = regexp.MustCompile(`(?im)^\s*/(approve|reject)\s+(.+?)\s*$`)

// Decision is an approval or rejection issued through a pull request comment.
type Decision struct {
	Domain string
	Status string
}

// ParseDecisions returns every `/approve <domain>` or `/reject <domain>` line
// found in a comment body, in order.
func ParseDecisions(comment string) []Decision {
	matches := decisionPattern.FindAllStringSubmatch(comment, -1)
	decisions := make([]Decision, 0, len(matches))
	for _, match := range matches {
		status := StatusApproved
		if strings.EqualFold(match[1], "reject") {
			status = StatusRejected
		}
		decisions = append(decisions, Decision{
			Domain: strings.TrimSpace(match[2]),
			Status: status,
		})
	}
	return decisions
}

// DecisionUpdates turns decisions into sparse updates stamped with the actor
// and the decision date (YYYY-MM-DD).
func DecisionUpdates(decisions []Decision, actor string, at time.Time) []Update {
	date := at.Format(time.DateOnly)
	updates := make([]Update, 0, len(decisions))
	for _, decision := range decisions {
		updates = append(updates, Update{
			Domain:     decision.Domain,
			Status:     String(decision.Status),
			ApprovedBy: String(actor),
			Date:       String(date),
		})
	}
	return updates
}
