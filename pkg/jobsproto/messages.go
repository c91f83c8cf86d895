package jobsproto

// MessageType tags the frames exchanged over the worker<->coordinator
// channel during the trust handshake and job lifecycle (spec.md §4.5).
type MessageType string

const (
	// Server -> client
	MsgTrustKey        MessageType = "trust_key"
	MsgAuthorized      MessageType = "authorized"
	MsgJobDataReceived MessageType = "job_data_received"
	MsgAbort           MessageType = "abort"
	MsgGoodbye         MessageType = "goodbye"

	// Client -> server
	MsgServicePassword MessageType = "service_password"
	MsgJobData         MessageType = "job_data"
	MsgAborting        MessageType = "aborting"
	MsgDone            MessageType = "done"
)

// DoneReason distinguishes a graceful completion from a coordinator-driven
// abort in a MsgDone frame.
type DoneReason string

const (
	DoneNormal  DoneReason = "normal"
	DoneAborted DoneReason = "aborted"
)

// Message is the single envelope shape every frame on the channel uses;
// only the fields relevant to Type are populated.
type Message struct {
	Type            MessageType `json:"type"`
	TrustKey        string      `json:"trustKey,omitempty"`
	ServicePassword string      `json:"servicePassword,omitempty"`
	Job             *Job        `json:"job,omitempty"`
	Reason          DoneReason  `json:"reason,omitempty"`
}
