package events

// Topic constants for domain events emitted by the platform.
const (
	TopicListCreated      = "list.created"
	TopicListMemberJoined = "list.member_joined"
	TopicListDeleting     = "list.deleting"
	TopicListPurged       = "list.purged"
	TopicExpenseCreated   = "expense.created"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicListCreated,
		TopicListMemberJoined,
		TopicListDeleting,
		TopicListPurged,
		TopicExpenseCreated,
	}
}
