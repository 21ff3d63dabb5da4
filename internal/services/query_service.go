package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"sqlplayground/internal/hints"
	"sqlplayground/internal/logging"
	"sqlplayground/internal/models"
	"sqlplayground/internal/repositories"
	"sqlplayground/internal/utils"
)

// ErrFileAccess rejects statements that would read or write files on the
// server instead of the in-memory database.
var ErrFileAccess = errors.New("ATTACH, DETACH and VACUUM INTO are disabled: every database lives in memory")

const (
	MsgEmptyQuery = "Please write a SQL command."
	MsgSuccess    = "Command executed successfully!"
)

type ExecuteQueryRequest struct {
	Query string `json:"query"`
}

// ExecuteResponse bundles everything the page redraws after a run.
type ExecuteResponse struct {
	Result    *models.QueryResult `json:"result"`
	Hint      *hints.Rule         `json:"hint,omitempty"`
	Tables    []models.Table      `json:"tables"`
	HistoryID uuid.UUID           `json:"history_id"`
}

type QueryOptions struct {
	Timeout time.Duration
	MaxRows int
}

type QueryService struct {
	sandboxes *SandboxService
	schema    *SchemaService
	journal   repositories.JournalStore
	history   repositories.QueryHistoryStore
	matcher   *hints.Matcher
	opts      QueryOptions
}

func NewQueryService(
	sandboxes *SandboxService,
	schema *SchemaService,
	journal repositories.JournalStore,
	history repositories.QueryHistoryStore,
	matcher *hints.Matcher,
	opts QueryOptions,
) *QueryService {
	return &QueryService{
		sandboxes: sandboxes,
		schema:    schema,
		journal:   journal,
		history:   history,
		matcher:   matcher,
		opts:      opts,
	}
}

// ExecuteQuery runs the text against the sandbox, records the run, picks a
// hint and re-reads the schema. Engine errors are reported in the result;
// the returned error is only for sandbox or infrastructure failures.
func (s *QueryService) ExecuteQuery(ctx context.Context, sandboxID uuid.UUID, req *ExecuteQueryRequest) (*ExecuteResponse, error) {
	sb, err := s.sandboxes.Get(ctx, sandboxID)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(req.Query)
	resp := &ExecuteResponse{}

	// The journal is written under the sandbox lock so it keeps the order
	// in which batches actually ran.
	err = sb.withDB(func(db *sql.DB) error {
		if query == "" {
			resp.Result = &models.QueryResult{Error: MsgEmptyQuery}
		} else {
			var applied []string
			resp.Result, applied = s.run(ctx, db, query)
			s.record(ctx, sandboxID, applied)
		}

		tables, err := s.schema.describe(ctx, sb, db)
		if err != nil {
			return err
		}
		resp.Tables = tables
		return nil
	})
	if err != nil {
		return nil, err
	}

	if query == "" {
		return resp, nil
	}

	engineErr := strings.TrimPrefix(resp.Result.Error, "Error: ")
	if rule, ok := s.matcher.Match(query, engineErr); ok {
		resp.Hint = &rule
	}

	exec := &models.QueryHistory{
		SandboxID:       sandboxID,
		QueryText:       query,
		ExecutedAt:      time.Now(),
		Success:         resp.Result.Success(),
		ExecutionTimeMs: int(resp.Result.ExecutionTime),
		ErrorMessage:    engineErr,
	}
	if resp.Hint != nil {
		exec.HintID = resp.Hint.ID
	}
	if err := s.history.Create(ctx, exec); err != nil {
		logging.Warn("failed to record query history", "sandbox_id", sandboxID, "err", err)
	}
	resp.HistoryID = exec.ID

	logging.Debug("query executed",
		"sandbox_id", sandboxID,
		"success", exec.Success,
		"hint", exec.HintID,
		"ms", exec.ExecutionTimeMs)

	return resp, nil
}

// record appends the applied statements to the sandbox journal, or just
// extends its lifetime when nothing changed.
func (s *QueryService) record(ctx context.Context, sandboxID uuid.UUID, applied []string) {
	for _, stmt := range applied {
		if err := s.journal.Append(ctx, sandboxID, stmt); err != nil {
			logging.Warn("failed to append to journal", "sandbox_id", sandboxID, "err", err)
			return
		}
	}
	if len(applied) == 0 {
		if err := s.journal.Touch(ctx, sandboxID); err != nil {
			logging.Warn("failed to touch journal", "sandbox_id", sandboxID, "err", err)
		}
	}
}

// run executes the statements of the batch in order and stops at the first
// failure, like sqlite3_exec. The last read statement provides the result
// set. Mutating statements that succeeded are returned for the journal.
func (s *QueryService) run(ctx context.Context, db *sql.DB, query string) (*models.QueryResult, []string) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	statements := utils.SplitStatements(query)
	if len(statements) == 0 {
		// Only comments: let the engine decide, it is a no-op.
		statements = []string{query}
	}

	start := time.Now()
	result := &models.QueryResult{}
	var applied []string

	for _, stmt := range statements {
		if utils.TouchesFiles(stmt) {
			result.Error = ErrFileAccess.Error()
			break
		}
		if utils.IsReadStatement(stmt) {
			selected, err := s.executeSelectQuery(ctx, db, stmt)
			if err != nil {
				result.Error = err.Error()
				break
			}
			selected.RowsAffected = result.RowsAffected
			result = selected
			if utils.FirstKeyword(stmt) == "PRAGMA" && strings.Contains(stmt, "=") {
				applied = append(applied, stmt)
			}
			continue
		}

		affected, err := s.executeNonSelectQuery(ctx, db, stmt)
		if err != nil {
			result.Error = err.Error()
			break
		}
		result.RowsAffected += affected
		applied = append(applied, stmt)
	}
	result.ExecutionTime = time.Since(start).Milliseconds()

	if result.Error == "" {
		result.Message = MsgSuccess
	} else {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Error = "query timed out after " + s.opts.Timeout.String()
		}
		result.Error = "Error: " + result.Error
	}
	return result, applied
}

func (s *QueryService) executeSelectQuery(ctx context.Context, db *sql.DB, query string) (*models.QueryResult, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows, s.opts.MaxRows)
}

// scanRows reads at most maxRows rows (all when maxRows <= 0) into a result.
func scanRows(rows *sql.Rows, maxRows int) (*models.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	resultRows := make([]map[string]interface{}, 0)
	truncated := false
	for rows.Next() {
		if maxRows > 0 && len(resultRows) >= maxRows {
			truncated = true
			break
		}

		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				rowMap[col] = string(v)
			case time.Time:
				rowMap[col] = v.Format(time.RFC3339)
			default:
				rowMap[col] = v
			}
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.QueryResult{
		Columns:   columns,
		Rows:      resultRows,
		RowCount:  len(resultRows),
		Truncated: truncated,
	}, nil
}

func (s *QueryService) executeNonSelectQuery(ctx context.Context, db *sql.DB, query string) (int64, error) {
	result, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetQueryHistory returns the newest runs of a sandbox first.
func (s *QueryService) GetQueryHistory(ctx context.Context, sandboxID uuid.UUID, limit int) ([]models.QueryHistory, error) {
	return s.history.GetBySandboxID(ctx, sandboxID, limit)
}
