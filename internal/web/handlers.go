package web

import "net/http"

// handleIndex serves a short description of the API.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>rowdb</title>
</head>
<body>
    <h1>rowdb</h1>
    <ul>
        <li><code>GET /api/rows</code> - list rows in insertion order</li>
        <li><code>POST /api/rows</code> - insert a row</li>
        <li><code>POST /api/statements</code> - run an insert or select statement</li>
        <li><code>GET /api/stats</code> - table statistics</li>
    </ul>
    <p><a href="/health">Health Check</a></p>
</body>
</html>`))
}

// handleHealth returns a simple health check response.
// This endpoint is used by load balancers and monitoring systems.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
