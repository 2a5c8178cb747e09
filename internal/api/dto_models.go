package api

import "github.com/example/onlinetravel/internal/models"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is used for simple messages such as the ping reply.
type SuccessResponse struct {
	Message string `json:"message"`
}

// EntityResponse is a resolved share document. Data is the nested snapshot
// for trips and destinations and the stored fields for notes.
type EntityResponse struct {
	Kind models.Kind            `json:"kind"`
	ID   string                 `json:"id"`
	Data map[string]interface{} `json:"data"`
}

type snapshotter interface {
	FullData(withID bool) map[string]interface{}
}

func newEntityResponse(e models.Entity) EntityResponse {
	data := e.Attrs()
	if s, ok := e.(snapshotter); ok {
		data = s.FullData(false)
	}
	return EntityResponse{Kind: e.Kind(), ID: e.EntityID(), Data: data}
}
