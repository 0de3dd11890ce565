package dto

// Envelope is the body of every JSON response: status is "success" or "fail".
type Envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

func Success(data any) Envelope { return Envelope{Status: "success", Data: data} }

func Fail(data any) Envelope { return Envelope{Status: "fail", Data: data} }

// Payload is a raw decoded JSON object. Write operations validate it field by
// field so that absent, null and mistyped members can be told apart.
type Payload map[string]any
