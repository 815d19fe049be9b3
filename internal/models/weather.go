package models

// InboundRequest is the request descriptor handed over by the hosting transport.
// Both API Gateway payload shapes decode into it: v1 sets Path and HTTPMethod,
// v2 sets RawPath and RequestContext.HTTP.Method.
type InboundRequest struct {
	RawPath               string            `json:"rawPath,omitempty"`
	Path                  string            `json:"path,omitempty"`
	HTTPMethod            string            `json:"httpMethod,omitempty"`
	RequestContext        RequestContext    `json:"requestContext"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
}

// RequestContext carries the v2 request metadata.
type RequestContext struct {
	RequestID string          `json:"requestId,omitempty"`
	HTTP      HTTPDescription `json:"http"`
}

// HTTPDescription is the v2 requestContext.http block.
type HTTPDescription struct {
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`
}

// ResolvedPath returns rawPath when set, otherwise path.
func (r InboundRequest) ResolvedPath() string {
	if r.RawPath != "" {
		return r.RawPath
	}
	return r.Path
}

// ResolvedMethod returns requestContext.http.method when set, otherwise httpMethod.
func (r InboundRequest) ResolvedMethod() string {
	if r.RequestContext.HTTP.Method != "" {
		return r.RequestContext.HTTP.Method
	}
	return r.HTTPMethod
}

// QueryParam returns the named query-string parameter, or "" when absent.
func (r InboundRequest) QueryParam(name string) string {
	return r.QueryStringParameters[name] // nil map read is safe
}

// Coordinates are forwarded to the upstream API as opaque strings.
type Coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// OutboundResponse is the single result of an invocation. Body is always JSON text.
type OutboundResponse struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}
