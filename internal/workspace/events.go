package workspace

import "github.com/HerbHall/startpage/pkg/tokens"

// Event topics published by the workspace module.
const (
	TopicCreated = "workspace.created"
	TopicUpdated = "workspace.updated"
	TopicDeleted = "workspace.deleted"
	// TopicChanged follows every mutation and carries the full list.
	TopicChanged = "workspaces.changed"
)

// Event is the payload of TopicCreated, TopicUpdated and TopicDeleted.
type Event struct {
	Workspace Workspace `json:"workspace"`
}

// ChangedEvent is the payload of TopicChanged.
type ChangedEvent struct {
	Workspaces tokens.Workspaces `json:"workspaces"`
}
