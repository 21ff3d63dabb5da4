package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlplayground/internal/hints"
	"sqlplayground/internal/repositories"
)

type testEnv struct {
	sandboxes *SandboxService
	schema    *SchemaService
	query     *QueryService
	journal   *repositories.MemoryJournalRepository
	history   *repositories.MemoryQueryHistoryRepository
}

func newTestEnv(t *testing.T, opts SandboxOptions) *testEnv {
	t.Helper()

	journal := repositories.NewMemoryJournalRepository(time.Hour)
	history := repositories.NewMemoryQueryHistoryRepository(50, time.Hour)
	sandboxes := NewSandboxService(journal, history, opts)
	schema := NewSchemaService(sandboxes)
	query := NewQueryService(sandboxes, schema, journal, history, hints.Default(), QueryOptions{
		Timeout: 5 * time.Second,
		MaxRows: 100,
	})
	t.Cleanup(sandboxes.Close)

	return &testEnv{
		sandboxes: sandboxes,
		schema:    schema,
		query:     query,
		journal:   journal,
		history:   history,
	}
}

func (e *testEnv) exec(t *testing.T, id uuid.UUID, sql string) *ExecuteResponse {
	t.Helper()
	resp, err := e.query.ExecuteQuery(context.Background(), id, &ExecuteQueryRequest{Query: sql})
	require.NoError(t, err)
	return resp
}

func TestExecuteQueryCreatesTable(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, "CREATE TABLE students (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")

	require.True(t, resp.Result.Success(), resp.Result.Error)
	assert.Equal(t, MsgSuccess, resp.Result.Message)
	assert.Nil(t, resp.Hint)
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, "students", resp.Tables[0].Name)
	assert.Equal(t, Palette[0], resp.Tables[0].Color)
	assert.Equal(t, []string{"id"}, resp.Tables[0].PrimaryKeys)
	assert.NotEqual(t, uuid.Nil, resp.HistoryID)

	stmts, err := env.journal.Statements(context.Background(), sb.ID)
	require.NoError(t, err)
	assert.Len(t, stmts, 1)
}

func TestExecuteQueryReturnsLastSelect(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, `
		CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO t (name) VALUES ('a'), ('b');
		SELECT name FROM t ORDER BY id;
	`)

	require.True(t, resp.Result.Success(), resp.Result.Error)
	assert.Equal(t, []string{"name"}, resp.Result.Columns)
	assert.Equal(t, 2, resp.Result.RowCount)
	assert.EqualValues(t, 2, resp.Result.RowsAffected)
	assert.Equal(t, "a", resp.Result.Rows[0]["name"])

	stmts, err := env.journal.Statements(context.Background(), sb.ID)
	require.NoError(t, err)
	assert.Len(t, stmts, 2, "reads are not journaled")
}

func TestExecuteQueryTruncatesRows(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	env.query.opts.MaxRows = 2
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, "WITH RECURSIVE n(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM n WHERE x < 5) SELECT x FROM n")

	require.True(t, resp.Result.Success(), resp.Result.Error)
	assert.Equal(t, 2, resp.Result.RowCount)
	assert.True(t, resp.Result.Truncated)
}

func TestExecuteQueryErrorWithHint(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, "SELECT * FROM missing")

	assert.False(t, resp.Result.Success())
	assert.Contains(t, resp.Result.Error, "Error: ")
	assert.Contains(t, resp.Result.Error, "no such table")
	require.NotNil(t, resp.Hint)
	assert.Equal(t, "no-such-table", resp.Hint.ID)

	history, err := env.query.GetQueryHistory(context.Background(), sb.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Equal(t, "no-such-table", history[0].HintID)
	assert.NotContains(t, history[0].ErrorMessage, "Error: ")
}

func TestExecuteQueryMySQLDialectHint(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, "CREATE DATABASE school;")

	assert.False(t, resp.Result.Success())
	require.NotNil(t, resp.Hint)
	assert.Equal(t, "create-database", resp.Hint.ID)
}

func TestExecuteQueryNoteOnSuccess(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, "CREATE TABLE t (id INT AUTO_INCREMENT PRIMARY KEY);")

	assert.True(t, resp.Result.Success(), resp.Result.Error)
	require.NotNil(t, resp.Hint)
	assert.Equal(t, hints.SeverityNote, resp.Hint.Severity)
}

func TestExecuteQueryEmpty(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, "   \n  ")

	assert.Equal(t, MsgEmptyQuery, resp.Result.Error)
	assert.Nil(t, resp.Hint)
	assert.Empty(t, resp.Tables)

	history, err := env.query.GetQueryHistory(context.Background(), sb.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExecuteQueryStopsAtFirstError(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, `
		CREATE TABLE a (x);
		INSERT INTO nope VALUES (1);
		CREATE TABLE b (x);
	`)

	assert.False(t, resp.Result.Success())
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, "a", resp.Tables[0].Name)

	stmts, err := env.journal.Statements(context.Background(), sb.ID)
	require.NoError(t, err)
	assert.Len(t, stmts, 1)
}

func TestExecuteQueryUnknownSandbox(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})

	_, err := env.query.ExecuteQuery(context.Background(), uuid.New(), &ExecuteQueryRequest{Query: "SELECT 1"})
	assert.ErrorIs(t, err, ErrSandboxNotFound)
}

func TestTableColorsAreStable(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	resp := env.exec(t, sb.ID, "CREATE TABLE a (x); CREATE TABLE b (x); CREATE TABLE c (x);")
	require.Len(t, resp.Tables, 3)
	for i, table := range resp.Tables {
		assert.Equal(t, Palette[i], table.Color, table.Name)
	}

	resp = env.exec(t, sb.ID, "DROP TABLE a;")
	require.Len(t, resp.Tables, 2)
	assert.Equal(t, Palette[1], resp.Tables[0].Color)
	assert.Equal(t, Palette[2], resp.Tables[1].Color)
}

func TestSandboxLimit(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{MaxSandboxes: 1})

	_, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	_, err = env.sandboxes.Create(context.Background())
	assert.ErrorIs(t, err, ErrTooManySandboxes)
	assert.Equal(t, 1, env.sandboxes.Count())
}

func TestSandboxRestoredFromJournal(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{TTL: time.Minute})
	ctx := context.Background()

	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)
	env.exec(t, sb.ID, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT); INSERT INTO t (v) VALUES ('kept');")

	evicted := env.sandboxes.Evict(time.Now().Add(2 * time.Minute))
	require.Equal(t, 1, evicted)
	assert.Equal(t, 0, env.sandboxes.Count())

	restored, err := env.sandboxes.Get(ctx, sb.ID)
	require.NoError(t, err)
	assert.True(t, restored.Info().Restored)

	resp := env.exec(t, sb.ID, "SELECT v FROM t")
	require.True(t, resp.Result.Success(), resp.Result.Error)
	require.Equal(t, 1, resp.Result.RowCount)
	assert.Equal(t, "kept", resp.Result.Rows[0]["v"])
}

func TestSandboxReset(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	ctx := context.Background()

	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)
	env.exec(t, sb.ID, "CREATE TABLE t (x);")

	_, err = env.sandboxes.Reset(ctx, sb.ID)
	require.NoError(t, err)

	tables, err := env.schema.GetTables(ctx, sb.ID)
	require.NoError(t, err)
	assert.Empty(t, tables)

	stmts, err := env.journal.Statements(ctx, sb.ID)
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestSandboxDelete(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	ctx := context.Background()

	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)
	env.exec(t, sb.ID, "CREATE TABLE t (x);")

	require.NoError(t, env.sandboxes.Delete(ctx, sb.ID))

	_, err = env.sandboxes.Get(ctx, sb.ID)
	assert.ErrorIs(t, err, ErrSandboxNotFound)

	history, err := env.history.GetBySandboxID(ctx, sb.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.ErrorIs(t, env.sandboxes.Delete(ctx, sb.ID), ErrSandboxNotFound)
}

func TestVisualizeSchema(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	ctx := context.Background()

	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)
	env.exec(t, sb.ID, `
		CREATE TABLE students (id INTEGER PRIMARY KEY, name TEXT);
		CREATE TABLE courses (id INTEGER PRIMARY KEY, title VARCHAR(80));
		CREATE TABLE enrollments (
			student_id INTEGER REFERENCES students(id),
			course_id INTEGER REFERENCES courses(id),
			PRIMARY KEY (student_id, course_id)
		);
		CREATE TABLE profiles (
			id INTEGER PRIMARY KEY,
			student_id INTEGER UNIQUE REFERENCES students(id)
		);
	`)

	diagram, err := env.schema.VisualizeSchema(ctx, sb.ID)
	require.NoError(t, err)

	assert.Contains(t, diagram, "erDiagram")
	assert.True(t,
		strings.Contains(diagram, "STUDENTS }o--o{ COURSES") || strings.Contains(diagram, "COURSES }o--o{ STUDENTS"),
		diagram)
	assert.NotContains(t, diagram, "||--o{ ENROLLMENTS")
	assert.Contains(t, diagram, "STUDENTS ||--|| PROFILES")
	assert.Contains(t, diagram, "varchar TITLE")
	assert.Contains(t, diagram, "int STUDENT_ID PK,FK")
}

func TestSimplifyDataType(t *testing.T) {
	tests := map[string]string{
		"":             "blob",
		"INTEGER":      "int",
		"BIGINT":       "int",
		"VARCHAR(255)": "varchar",
		"TEXT":         "text",
		"REAL":         "real",
		"DOUBLE":       "real",
		"BOOLEAN":      "boolean",
		"DATETIME":     "datetime",
		"DECIMAL(5,2)": "numeric",
	}
	for in, want := range tests {
		assert.Equal(t, want, simplifyDataType(in), in)
	}
}

func TestTableServiceRows(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	ctx := context.Background()
	tables := NewTableService(env.sandboxes, env.journal)

	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)
	env.exec(t, sb.ID, `
		CREATE TABLE n (v INTEGER);
		WITH RECURSIVE s(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM s WHERE x < 7)
		INSERT INTO n SELECT x FROM s;
	`)

	page, err := tables.GetRows(ctx, sb.ID, "n", 3, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 7, page.Total)
	assert.Equal(t, 2, page.Result.RowCount)
	assert.EqualValues(t, 6, page.Result.Rows[0]["v"])

	_, err = tables.GetRows(ctx, sb.ID, "missing", 0, 0)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestTableServiceDelete(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	ctx := context.Background()
	tables := NewTableService(env.sandboxes, env.journal)

	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)
	env.exec(t, sb.ID, `CREATE TABLE "odd name" (x);`)

	require.NoError(t, tables.DeleteTable(ctx, sb.ID, "odd name"))

	listed, err := env.schema.GetTables(ctx, sb.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)

	stmts, err := env.journal.Statements(ctx, sb.ID)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, `DROP TABLE "odd name"`, stmts[1])

	assert.ErrorIs(t, tables.DeleteTable(ctx, sb.ID, "odd name"), ErrTableNotFound)
}

// gatedJournal lets a test hold a journal call open while other requests
// run against the same sandbox.
type gatedJournal struct {
	repositories.JournalStore
	onAppend     func(stmt string)
	onStatements func()
}

func (j *gatedJournal) Append(ctx context.Context, sandboxID uuid.UUID, stmt string) error {
	if j.onAppend != nil {
		j.onAppend(stmt)
	}
	return j.JournalStore.Append(ctx, sandboxID, stmt)
}

func (j *gatedJournal) Statements(ctx context.Context, sandboxID uuid.UUID) ([]string, error) {
	if j.onStatements != nil {
		j.onStatements()
	}
	return j.JournalStore.Statements(ctx, sandboxID)
}

func newGatedEnv(t *testing.T, opts SandboxOptions) (*testEnv, *gatedJournal) {
	t.Helper()

	inner := repositories.NewMemoryJournalRepository(time.Hour)
	journal := &gatedJournal{JournalStore: inner}
	history := repositories.NewMemoryQueryHistoryRepository(50, time.Hour)
	sandboxes := NewSandboxService(journal, history, opts)
	schema := NewSchemaService(sandboxes)
	query := NewQueryService(sandboxes, schema, journal, history, hints.Default(), QueryOptions{
		Timeout: 5 * time.Second,
		MaxRows: 100,
	})
	t.Cleanup(sandboxes.Close)

	return &testEnv{
		sandboxes: sandboxes,
		schema:    schema,
		query:     query,
		journal:   inner,
		history:   history,
	}, journal
}

// holdCreate blocks the first CREATE append until release is closed.
func holdCreate(journal *gatedJournal) (entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	journal.onAppend = func(stmt string) {
		if strings.HasPrefix(stmt, "CREATE") {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	}
	return entered, release
}

func TestExecuteQueryRejectsFileAccess(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	ctx := context.Background()
	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)

	dir := t.TempDir()
	attached := filepath.Join(dir, "escaped.db")
	copied := filepath.Join(dir, "vacuum.db")

	resp := env.exec(t, sb.ID, "ATTACH DATABASE '"+attached+"' AS e; CREATE TABLE e.pwn (x); INSERT INTO e.pwn VALUES (1);")
	assert.Equal(t, "Error: "+ErrFileAccess.Error(), resp.Result.Error)
	require.NotNil(t, resp.Hint)
	assert.Equal(t, "attach-database", resp.Hint.ID)

	resp = env.exec(t, sb.ID, "CREATE TABLE kept (x); VACUUM INTO '"+copied+"';")
	assert.Equal(t, "Error: "+ErrFileAccess.Error(), resp.Result.Error)

	resp = env.exec(t, sb.ID, "DETACH e")
	assert.Equal(t, "Error: "+ErrFileAccess.Error(), resp.Result.Error)

	for _, path := range []string{attached, copied} {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), path)
	}

	stmts, err := env.journal.Statements(ctx, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE kept (x)"}, stmts)
}

func TestExecuteQueryTimeout(t *testing.T) {
	env := newTestEnv(t, SandboxOptions{})
	env.query.opts.Timeout = 200 * time.Millisecond
	sb, err := env.sandboxes.Create(context.Background())
	require.NoError(t, err)

	start := time.Now()
	resp := env.exec(t, sb.ID, "WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c) SELECT count(*) FROM c;")

	assert.Equal(t, "Error: query timed out after 200ms", resp.Result.Error)
	assert.Less(t, time.Since(start), 5*time.Second)

	// The sandbox keeps working after an interrupted run.
	resp = env.exec(t, sb.ID, "CREATE TABLE t (x); INSERT INTO t VALUES (1); SELECT count(*) AS n FROM t;")
	require.True(t, resp.Result.Success(), resp.Result.Error)
	require.Equal(t, 1, resp.Result.RowCount)
	assert.EqualValues(t, 1, resp.Result.Rows[0]["n"])
}

func TestConcurrentBatchesJournalInRunOrder(t *testing.T) {
	env, journal := newGatedEnv(t, SandboxOptions{TTL: time.Minute})
	ctx := context.Background()
	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)

	entered, release := holdCreate(journal)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		env.query.ExecuteQuery(ctx, sb.ID, &ExecuteQueryRequest{Query: "CREATE TABLE t (a)"})
	}()

	<-entered
	go func() {
		defer wg.Done()
		env.query.ExecuteQuery(ctx, sb.ID, &ExecuteQueryRequest{Query: "INSERT INTO t VALUES (1)"})
	}()

	// Give the second batch time to reach the sandbox before the first
	// finishes journaling.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	stmts, err := env.journal.Statements(ctx, sb.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE t (a)", "INSERT INTO t VALUES (1)"}, stmts)

	require.Equal(t, 1, env.sandboxes.Evict(time.Now().Add(2*time.Minute)))

	resp := env.exec(t, sb.ID, "SELECT count(*) AS n FROM t")
	require.True(t, resp.Result.Success(), resp.Result.Error)
	assert.EqualValues(t, 1, resp.Result.Rows[0]["n"])
}

func TestResetWaitsForRunningBatch(t *testing.T) {
	env, journal := newGatedEnv(t, SandboxOptions{})
	ctx := context.Background()
	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)

	entered, release := holdCreate(journal)

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.query.ExecuteQuery(ctx, sb.ID, &ExecuteQueryRequest{Query: "CREATE TABLE t (a)"})
	}()

	<-entered
	resetErr := make(chan error, 1)
	go func() {
		_, err := env.sandboxes.Reset(ctx, sb.ID)
		resetErr <- err
	}()

	time.Sleep(50 * time.Millisecond)
	close(release)
	<-done
	require.NoError(t, <-resetErr)

	stmts, err := env.journal.Statements(ctx, sb.ID)
	require.NoError(t, err)
	assert.Empty(t, stmts)

	tables, err := env.schema.GetTables(ctx, sb.ID)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestConcurrentRestoreSharesOneSandbox(t *testing.T) {
	env, journal := newGatedEnv(t, SandboxOptions{TTL: time.Minute})
	ctx := context.Background()

	sb, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)
	env.exec(t, sb.ID, "CREATE TABLE t (a)")
	require.Equal(t, 1, env.sandboxes.Evict(time.Now().Add(2*time.Minute)))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	journal.onStatements = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	const callers = 8
	got := make([]*Sandbox, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			got[i], _ = env.sandboxes.Get(ctx, sb.ID)
		}(i)
	}

	// Other sandboxes stay usable while the restore reads its journal.
	<-entered
	other, err := env.sandboxes.Create(ctx)
	require.NoError(t, err)
	resp := env.exec(t, other.ID, "SELECT 1")
	assert.True(t, resp.Result.Success(), resp.Result.Error)

	close(release)
	wg.Wait()

	require.NotNil(t, got[0])
	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, 2, env.sandboxes.Count())
}
