package shared

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
