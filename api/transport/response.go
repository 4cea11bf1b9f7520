package transport

// Envelope wraps every API response, successful or not.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// ErrorBody describes a failure. Kind is the stable machine tag, for example
// "chat_already_claimed"; Message is for humans.
type ErrorBody struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// PageMeta points at the next page of a chat listing.
type PageMeta struct {
	NextCursorCreatedAt string `json:"next_cursor_created_at"`
	NextCursorID        string `json:"next_cursor_id"`
}

func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

func NewError(code string, body ErrorBody, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  &body,
		Meta:   meta,
	}
}
