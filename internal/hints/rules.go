package hints

import "regexp"

// stmtStart anchors a pattern at the beginning of any statement in a batch,
// after any leading comments.
const stmtStart = `(?:\A|;)(?:--[^\n]*\n|/\*.*?\*/|\s)*`

func sqlRule(id, title, pattern, body string) Rule {
	return Rule{ID: id, Title: title, Severity: SeverityError, HTML: body, query: regexp.MustCompile("(?is)" + pattern)}
}

func errRule(id, title, pattern, body string) Rule {
	return Rule{ID: id, Title: title, Severity: SeverityError, HTML: body, err: regexp.MustCompile("(?i)" + pattern)}
}

func bothRule(id, title, queryPattern, errPattern, body string) Rule {
	r := sqlRule(id, title, queryPattern, body)
	r.err = regexp.MustCompile("(?i)" + errPattern)
	return r
}

func noteRule(id, title, pattern, body string) Rule {
	r := sqlRule(id, title, pattern, body)
	r.Severity = SeverityNote
	return r
}

// Order matters: statement-specific rules come before the generic
// engine-error rules, and the syntax-error fallback comes last.
var builtinRules = []Rule{
	sqlRule("create-database", "SQLite has no CREATE DATABASE",
		`\bCREATE\s+(DATABASE|SCHEMA)\b`,
		`<p>In MySQL you create a database with <code>CREATE DATABASE</code> and then work inside it.
In SQLite the whole database is a single file. Here it is a private in-memory database that already exists.</p>
<p>Skip this step and start directly with <code>CREATE TABLE</code>.</p>`),

	sqlRule("use-database", "SQLite has no USE",
		stmtStart+`USE\s+\S+`,
		`<p><code>USE name</code> switches databases in MySQL. SQLite has only one database per connection, so there is nothing to switch to.</p>
<p>Remove the <code>USE</code> line. Your tables live in the current database.</p>`),

	noteRule("auto-increment", "AUTO_INCREMENT is MySQL syntax",
		`\bAUTO_INCREMENT\b`,
		`<p>SQLite does not know <code>AUTO_INCREMENT</code> (with an underscore).</p>
<p>A column declared <code>INTEGER PRIMARY KEY</code> is filled in automatically:</p>
<pre>CREATE TABLE students (
  id INTEGER PRIMARY KEY,
  name TEXT
);</pre>
<p>If you need ids never to be reused, write <code>INTEGER PRIMARY KEY AUTOINCREMENT</code>. There is no underscore, and the column type must be exactly <code>INTEGER</code>.</p>`),

	sqlRule("engine-clause", "ENGINE= is MySQL only",
		`\bENGINE\s*=`,
		`<p><code>ENGINE=InnoDB</code> (or MyISAM) picks a MySQL storage engine. SQLite has a single storage engine and does not accept table options after the closing parenthesis.</p>
<p>Delete everything after the final <code>)</code> of your <code>CREATE TABLE</code>.</p>`),

	sqlRule("alter-drop-column", "Dropping columns in SQLite",
		`\bALTER\s+TABLE\s+\S+\s+DROP\s+`,
		`<p>SQLite only supports <code>ALTER TABLE t DROP COLUMN c</code> with the <code>COLUMN</code> keyword. It also refuses to drop a column that is a PRIMARY KEY, is UNIQUE, is indexed or is used in a foreign key.</p>
<p>When that happens, the usual approach is to rebuild the table:</p>
<pre>CREATE TABLE new_t AS SELECT col1, col2 FROM t;
DROP TABLE t;
ALTER TABLE new_t RENAME TO t;</pre>`),

	sqlRule("alter-modify-column", "SQLite has no MODIFY COLUMN",
		`\bALTER\s+TABLE\s+\S+\s+MODIFY\b`,
		`<p><code>ALTER TABLE ... MODIFY</code> is MySQL syntax. SQLite cannot change a column's type or constraints in place.</p>
<p>SQLite supports <code>RENAME TO</code>, <code>RENAME COLUMN</code>, <code>ADD COLUMN</code> and <code>DROP COLUMN</code>. To change a type, create a new table with the right definition, copy the rows with <code>INSERT INTO ... SELECT</code>, and drop the old one.</p>`),

	sqlRule("alter-change-column", "SQLite has no CHANGE / ALTER COLUMN",
		`\bALTER\s+TABLE\s+\S+\s+(CHANGE|ALTER\s+COLUMN)\b`,
		`<p><code>CHANGE</code> and <code>ALTER COLUMN</code> do not exist in SQLite.</p>
<p>To only rename a column, use <code>ALTER TABLE t RENAME COLUMN old TO new</code>. Any other change means rebuilding the table.</p>`),

	sqlRule("show-tables", "SQLite has no SHOW",
		stmtStart+`SHOW\s+(FULL\s+)?(TABLES|DATABASES|COLUMNS|CREATE)\b`,
		`<p><code>SHOW TABLES</code> and friends are MySQL commands. In SQLite the catalog is a regular table:</p>
<pre>SELECT name FROM sqlite_master WHERE type = 'table';</pre>
<p>The panel on the right already lists your tables after every run.</p>`),

	sqlRule("describe-table", "SQLite has no DESCRIBE",
		stmtStart+`(DESCRIBE|DESC)\s+\S+`,
		`<p>To see a table's columns in SQLite use the <code>table_info</code> pragma:</p>
<pre>PRAGMA table_info(students);</pre>`),

	sqlRule("enum-type", "SQLite has no ENUM",
		`\bENUM\s*\(`,
		`<p>SQLite has no <code>ENUM</code> type. Use <code>TEXT</code> with a <code>CHECK</code> constraint:</p>
<pre>status TEXT CHECK (status IN ('active', 'inactive'))</pre>`),

	sqlRule("charset", "Character sets are MySQL options",
		`\b(CHARSET|CHARACTER\s+SET)\b|\bCOLLATE\s*=`,
		`<p><code>CHARSET</code> and <code>CHARACTER SET</code> are MySQL table options. SQLite always stores text as UTF-8 (or UTF-16), so remove them.</p>`),

	sqlRule("insert-set", "INSERT ... SET is MySQL syntax",
		`\bINSERT\s+INTO\s+\S+\s+SET\b`,
		`<p>SQLite only understands the standard form of <code>INSERT</code>:</p>
<pre>INSERT INTO students (name, age) VALUES ('Ana', 20);</pre>`),

	sqlRule("truncate-table", "SQLite has no TRUNCATE",
		stmtStart+`TRUNCATE\b`,
		`<p>SQLite has no <code>TRUNCATE TABLE</code>. A <code>DELETE</code> without <code>WHERE</code> empties the table, and SQLite runs it quickly:</p>
<pre>DELETE FROM students;</pre>`),

	errRule("attach-database", "Other database files are off limits",
		`ATTACH, DETACH and VACUUM INTO are disabled`,
		`<p>Each playground database lives only in memory, so <code>ATTACH</code>, <code>DETACH</code> and <code>VACUUM INTO</code> cannot reach files. Create the tables you need in this database instead:</p>
<pre>CREATE TABLE archive AS SELECT * FROM students;</pre>`),

	bothRule("now-function", "Use CURRENT_TIMESTAMP instead of NOW()",
		`\bNOW\s*\(\s*\)`, `no such function`,
		`<p><code>NOW()</code> is a MySQL function. In SQLite write <code>CURRENT_TIMESTAMP</code> or <code>datetime('now')</code>.</p>`),

	errRule("no-such-table", "The table does not exist",
		`no such table`,
		`<p>SQLite cannot find that table. Check the spelling and make sure you ran its <code>CREATE TABLE</code> first. Every sandbox starts empty, and <em>Reset</em> deletes everything.</p>`),

	errRule("no-such-column", "The column does not exist",
		`no such column`,
		`<p>That column is not part of the table. Compare the name with the tables panel.</p>
<p>Text values must go between <strong>single</strong> quotes (<code>'Ana'</code>). Anything between double quotes is read as a column name.</p>`),

	errRule("table-exists", "The table already exists",
		`table \S+ already exists`,
		`<p>A table with that name already exists. Drop it first with <code>DROP TABLE name;</code> or write <code>CREATE TABLE IF NOT EXISTS</code>.</p>`),

	errRule("unique-failed", "Duplicate value",
		`UNIQUE constraint failed`,
		`<p>You tried to store a value that already exists in a <code>UNIQUE</code> or <code>PRIMARY KEY</code> column. Every row needs a different value there.</p>`),

	errRule("notnull-failed", "Missing required value",
		`NOT NULL constraint failed`,
		`<p>A column declared <code>NOT NULL</code> did not receive a value. Include it in the column list of your <code>INSERT</code>, or give it a <code>DEFAULT</code>.</p>`),

	errRule("foreign-key-failed", "Foreign key violation",
		`FOREIGN KEY constraint failed`,
		`<p>The value you used in a foreign key column does not exist in the referenced table. Alternatively, you are deleting a row that other rows still reference. Insert the parent row first.</p>`),

	errRule("syntax-error", "Syntax error",
		`syntax error|incomplete input`,
		`<p>SQLite could not parse the statement. Look right before the word quoted in the error message. Common causes are a missing comma between columns, an unclosed parenthesis or quote, or MySQL-only keywords.</p>`),

	noteRule("unsigned-note", "UNSIGNED is ignored",
		`\bUNSIGNED\b`,
		`<p>SQLite accepted <code>UNSIGNED</code>, but it only treats it as part of the type name. Negative numbers are still allowed. Add <code>CHECK (col &gt;= 0)</code> if you need the restriction.</p>`),

	noteRule("varchar-length-note", "VARCHAR lengths are not enforced",
		`\bVARCHAR\s*\(\s*\d+\s*\)`,
		`<p>SQLite accepted <code>VARCHAR(n)</code>, but the length is not enforced: longer strings are stored as they are. Use <code>CHECK (length(col) &lt;= n)</code> if the limit matters.</p>`),
}
