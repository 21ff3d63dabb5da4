package models

// QueryResult is what a single run reports back to the page.
// Engine errors travel in Error, not as Go errors.
type QueryResult struct {
	Columns       []string                 `json:"columns,omitempty"`
	Rows          []map[string]interface{} `json:"rows,omitempty"`
	RowCount      int                      `json:"row_count"`
	RowsAffected  int64                    `json:"rows_affected,omitempty"`
	Truncated     bool                     `json:"truncated,omitempty"`
	ExecutionTime int64                    `json:"execution_time_ms"`
	Message       string                   `json:"message,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

func (r *QueryResult) Success() bool {
	return r.Error == ""
}
