// Package web provides the HTTP API for the database.
//
// This file contains the JSON API endpoints for programmatic access.

package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cabewaldrop/rowdb/internal/logging"
	"github.com/cabewaldrop/rowdb/internal/sql/parser"
	"github.com/cabewaldrop/rowdb/internal/table"
)

// ============================================================================
// API Response Types
// ============================================================================

// APIResponse wraps all API responses with success/error info.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Hint    string      `json:"hint,omitempty"`
}

// RowData is the JSON form of a row.
type RowData struct {
	ID       uint32 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RowsResponse contains paginated row data.
type RowsResponse struct {
	Rows       []RowData `json:"rows"`
	TotalCount int       `json:"total_count"`
	Offset     int       `json:"offset"`
	Limit      int       `json:"limit"`
	HasMore    bool      `json:"has_more"`
}

// InsertRequest is the body for inserting a row.
type InsertRequest struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// StatementRequest is the body for statement execution.
type StatementRequest struct {
	Statement string `json:"statement"`
}

// StatementResponse contains statement results.
type StatementResponse struct {
	Rows     []RowData `json:"rows,omitempty"`
	RowCount int       `json:"row_count"`
	Message  string    `json:"message"`
}

// StatsResponse describes the table.
type StatsResponse struct {
	Path        string `json:"path"`
	Rows        uint32 `json:"rows"`
	MaxRows     uint32 `json:"max_rows"`
	Pages       uint32 `json:"pages"`
	CachedPages int    `json:"cached_pages"`
	RowSize     int    `json:"row_size"`
	RowsPerPage int    `json:"rows_per_page"`
}

// ============================================================================
// Helper Functions
// ============================================================================

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful API response.
func writeSuccess(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error API response.
func writeError(w http.ResponseWriter, status int, message, hint string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   message,
		Hint:    hint,
	})
}

// writeStatementError reports a prepare or execute failure.
func writeStatementError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "statement failed", "error", err)
	}
	writeError(w, status, err.Error(), GetErrorHint(err))
}

func toRowData(rows []table.Row) []RowData {
	out := make([]RowData, len(rows))
	for i := range rows {
		out[i] = RowData{
			ID:       rows[i].ID,
			Username: rows[i].UsernameString(),
			Email:    rows[i].EmailString(),
		}
	}
	return out
}

// ============================================================================
// API Handlers
// ============================================================================

// handleAPIRows returns rows in insertion order.
// GET /api/rows?limit=100&offset=0
func (s *Server) handleAPIRows(w http.ResponseWriter, r *http.Request) {
	exec := GetExecutor(r)

	limit := 100
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= table.MaxRows {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	result, err := exec.Execute(&parser.SelectStatement{})
	if err != nil {
		writeStatementError(w, r, err)
		return
	}

	allRows := result.Rows
	start := min(offset, len(allRows))
	end := start + min(limit, len(allRows)-start)

	writeSuccess(w, http.StatusOK, RowsResponse{
		Rows:       toRowData(allRows[start:end]),
		TotalCount: len(allRows),
		Offset:     offset,
		Limit:      limit,
		HasMore:    end < len(allRows),
	})
}

// handleAPIInsert inserts one row.
// POST /api/rows
func (s *Server) handleAPIInsert(w http.ResponseWriter, r *http.Request) {
	exec := GetExecutor(r)

	var req InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	if !IsValidField(req.Username) || !IsValidField(req.Email) {
		writeError(w, http.StatusBadRequest, "username and email must be non-empty and contain no whitespace", "")
		return
	}

	stmt, err := parser.NewInsert(req.ID, req.Username, req.Email)
	if err != nil {
		writeStatementError(w, r, err)
		return
	}

	if _, err := exec.Execute(stmt); err != nil {
		writeStatementError(w, r, err)
		return
	}
	logging.InfoContext(r.Context(), "row inserted", "id", stmt.Row.ID)

	writeSuccess(w, http.StatusCreated, toRowData([]table.Row{stmt.Row})[0])
}

// handleAPIStatement runs a textual statement.
// POST /api/statements
func (s *Server) handleAPIStatement(w http.ResponseWriter, r *http.Request) {
	exec := GetExecutor(r)

	var req StatementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}
	if req.Statement == "" {
		writeError(w, http.StatusBadRequest, "statement field is required", "")
		return
	}

	result, err := exec.Run(req.Statement)
	if err != nil {
		writeStatementError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, StatementResponse{
		Rows:     toRowData(result.Rows),
		RowCount: len(result.Rows),
		Message:  "Executed.",
	})
}

// handleAPIStats returns table statistics.
// GET /api/stats
func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats := GetExecutor(r).Stats()
	writeSuccess(w, http.StatusOK, StatsResponse{
		Path:        stats.Path,
		Rows:        stats.Rows,
		MaxRows:     stats.MaxRows,
		Pages:       stats.Pages,
		CachedPages: stats.CachedPages,
		RowSize:     stats.RowSize,
		RowsPerPage: stats.RowsPerPage,
	})
}
