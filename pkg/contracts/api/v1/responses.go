package api

import "github.com/CyprienPascal/PIP/pkg/contracts/domain"

// StatusSuccess is the status of every successful JSON response
const StatusSuccess = "success"

// Response is the envelope of every successful JSON response. Diagnostics
// lists the degradations met while computing Data; an empty list means the
// view is complete.
type Response struct {
	Status      string             `json:"status"`
	Data        interface{}        `json:"data"`
	Count       int                `json:"count,omitempty"`
	Diagnostics domain.Diagnostics `json:"diagnostics"`
}

// NewResponse wraps data. A nil diagnostics list is rendered as [].
func NewResponse(data interface{}, diags domain.Diagnostics) Response {
	if diags == nil {
		diags = domain.Diagnostics{}
	}
	return Response{Status: StatusSuccess, Data: data, Diagnostics: diags}
}

// WithCount sets the item count of list responses
func (r Response) WithCount(n int) Response {
	r.Count = n
	return r
}
