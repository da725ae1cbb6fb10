package core

// Inbound events.
const (
	EventJoin         = "join"
	EventUserJoin     = "user:join"
	EventPing         = "ping"
	EventChatJoin     = "chat:join"
	EventChatLeave    = "chat:leave"
	EventChatTyping   = "chat:typing"
	EventMessageView  = "chat:message:viewed"
	EventMessagePin   = "chat:message:pin"
	EventMessageUnpin = "chat:message:unpin"
	EventCallStart    = "call:start"
	EventCallJoin     = "call:join"
	EventCallLeave    = "call:leave"
	EventCallMute     = "call:mute"
	EventCallSpeaking = "call:speaking"
)

// Outbound events.
const (
	EventPong                = "pong"
	EventError               = "error"
	EventUserOnline          = "user:online"
	EventUserOffline         = "user:offline"
	EventChatMessage         = "chat:message"
	EventMessageViewed       = "chat:message:viewed"
	EventMessagePinned       = "chat:message:pinned"
	EventMessageUnpinned     = "chat:message:unpinned"
	EventCallStarted         = "call:started"
	EventCallJoined          = "call:joined"
	EventParticipantJoined   = "call:participant_joined"
	EventParticipantLeft     = "call:participant_left"
	EventParticipantMuted    = "call:participant_muted"
	EventParticipantSpeaking = "call:participant_speaking"
	EventCallEnded           = "call:ended"
)
