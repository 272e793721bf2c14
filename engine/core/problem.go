package core

import "net/http"

// ProblemDocument documents the error body every endpoint returns.
type ProblemDocument struct {
	Status   int    `json:"status"             example:"409"`
	Error    string `json:"error"              example:"Conflict"`
	Details  string `json:"details,omitempty"  example:"application LN-202610-0001 is not in draft"`
	Code     string `json:"code,omitempty"     example:"INVALID_TRANSITION"`
	Type     string `json:"type,omitempty"     example:"about:blank"`
	Instance string `json:"instance,omitempty" example:"/api/v1/applications/2a9X/submit"`
}

// Problem is the in-process form of an RFC 7807 response. Extras carries
// the error code and any details; it cannot shadow the standard members.
type Problem struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Extras   map[string]any
}

// NormalizeProblem fills status, title and type when the caller left them
// empty. A nil problem becomes a bare 500.
func NormalizeProblem(p *Problem) *Problem {
	if p == nil {
		p = &Problem{}
	}
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Type == "" {
		p.Type = "about:blank"
	}
	return p
}

// BuildProblemBody renders p as the JSON object described by
// ProblemDocument, followed by any non-reserved extras.
func BuildProblemBody(p *Problem) map[string]any {
	body := make(map[string]any, 6+len(p.Extras))
	for key, value := range p.Extras {
		body[key] = value
	}
	for key, value := range map[string]string{
		"details":  p.Detail,
		"type":     p.Type,
		"instance": p.Instance,
	} {
		delete(body, key)
		if value != "" {
			body[key] = value
		}
	}
	body["status"] = p.Status
	body["error"] = p.Title
	return body
}
