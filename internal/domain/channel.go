package domain

// ChannelID is a router-level broadcast group key. Chat and call channels
// share one namespace, so raw ids are always prefixed.
type ChannelID string

// GlobalChannel is the reserved chat channel every project shares.
const GlobalChannel = "all"

const (
	chatPrefix = "chat:"
	callPrefix = "call:"
)

func ChatChannel(id string) ChannelID { return ChannelID(chatPrefix + id) }

func CallChannel(id CallID) ChannelID { return ChannelID(callPrefix + string(id)) }
