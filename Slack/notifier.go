package Slack

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"Workshop/Maintenance"
)

// poster is the subset of *slack.Client the notifier uses.
type poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts auto-generate summaries to a Slack channel.
// Required Bot Token Scopes:
// - chat:write (send messages)
type Notifier struct {
	client  poster
	channel string
}

func NewNotifier(token, channel string) *Notifier {
	return &Notifier{
		client:  slack.New(token, slack.OptionDebug(false)),
		channel: channel,
	}
}

func (n *Notifier) AutoGenerateCompleted(result *Maintenance.BatchResult) error {
	_, _, err := n.client.PostMessage(n.channel, slack.MsgOptionText(FormatBatchSummary(result), false))
	if err != nil {
		return fmt.Errorf("error posting to slack: %w", err)
	}
	return nil
}

// FormatBatchSummary renders one line per vehicle group under a count header.
func FormatBatchSummary(result *Maintenance.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Job cards auto-generated:* %d created, %d failed\n", result.Succeeded, result.Failed)
	for _, group := range result.Results {
		if group.Success {
			fmt.Fprintf(&b, "✅ %s → %s (%d items)\n", group.Vehicle, group.JobCardNo, group.ItemCount)
		} else {
			fmt.Fprintf(&b, "❌ %s: %s\n", group.Vehicle, group.Error)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
