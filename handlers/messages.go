package handlers

// clientMessage is one inbound wire message. The driver (the device-side
// client) declares the message type and carries the current screen.
type clientMessage struct {
	Type       string `json:"type"`                  // "init" or "step"
	Task       string `json:"task,omitempty"`        // required iff type == "init"
	Screenshot string `json:"screenshot"`            // base64 image, required always
	ScreenInfo string `json:"screen_info,omitempty"` // optional page description
}

// defaultScreenInfo is used when the client omits screen_info.
const defaultScreenInfo = "Unknown Page"

// stepResponse is the success reply for one processed message.
type stepResponse struct {
	Status      string         `json:"status"` // always "success"
	Step        int            `json:"step"`
	Thinking    string         `json:"thinking"`
	Action      map[string]any `json:"action"`
	RawResponse string         `json:"raw_response"`
	Finished    bool           `json:"finished"`
}

// errorResponse is the error reply. The connection stays open.
type errorResponse struct {
	Status  string `json:"status"` // always "error"
	Message string `json:"message"`
}
