package utils

import "sync/atomic"

// Metrics holds counters for bot operations
var (
	messagesReceived  atomic.Int64
	messagesSent      atomic.Int64
	commandsInvoked   atomic.Int64
	discordReconnects atomic.Int64
)

// IncrementMessagesReceived counts a message the command router looked at.
func IncrementMessagesReceived() {
	messagesReceived.Add(1)
}

// IncrementMessagesSent counts an outbound message or interaction response.
func IncrementMessagesSent() {
	messagesSent.Add(1)
}

// IncrementCommandsInvoked counts a dispatched command.
func IncrementCommandsInvoked() {
	commandsInvoked.Add(1)
}

// IncrementReconnects counts a Ready event after the first.
func IncrementReconnects() {
	discordReconnects.Add(1)
}

// GetMetrics returns the current metrics as a map
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"messages_received":  messagesReceived.Load(),
		"messages_sent":      messagesSent.Load(),
		"commands_invoked":   commandsInvoked.Load(),
		"discord_reconnects": discordReconnects.Load(),
	}
}
