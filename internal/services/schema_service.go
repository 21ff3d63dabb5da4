package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sqlplayground/internal/models"
	"sqlplayground/internal/repositories"
	"sqlplayground/internal/utils"
)

const (
	maxJunctionTableColumns = 6
	minJunctionTableFKs     = 2
)

type SchemaService struct {
	sandboxes *SandboxService
}

func NewSchemaService(sandboxes *SandboxService) *SchemaService {
	return &SchemaService{sandboxes: sandboxes}
}

// GetTables returns the current tables of a sandbox with their colors.
func (s *SchemaService) GetTables(ctx context.Context, sandboxID uuid.UUID) ([]models.Table, error) {
	sb, err := s.sandboxes.Get(ctx, sandboxID)
	if err != nil {
		return nil, err
	}

	var tables []models.Table
	err = sb.withDB(func(db *sql.DB) error {
		var err error
		tables, err = s.describe(ctx, sb, db)
		return err
	})
	return tables, err
}

// VisualizeSchema generates a Mermaid ER diagram for a sandbox.
func (s *SchemaService) VisualizeSchema(ctx context.Context, sandboxID uuid.UUID) (string, error) {
	tables, err := s.GetTables(ctx, sandboxID)
	if err != nil {
		return "", err
	}
	return generateMermaid(tables, buildRelationships(tables)), nil
}

// describe must be called with the sandbox lock held.
func (s *SchemaService) describe(ctx context.Context, sb *Sandbox, db *sql.DB) ([]models.Table, error) {
	tables, err := parseTables(ctx, repositories.NewSchemaRepository(db))
	if err != nil {
		return nil, fmt.Errorf("failed to parse tables: %w", err)
	}
	for i := range tables {
		tables[i].Color = sb.colorFor(tables[i].Name, i)
	}
	return tables, nil
}

func parseTables(ctx context.Context, schemaRepo *repositories.SchemaRepository) ([]models.Table, error) {
	tableNames, err := schemaRepo.GetTables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]models.Table, 0, len(tableNames))

	for _, tableName := range tableNames {
		table := models.Table{Name: tableName}

		columns, err := schemaRepo.GetColumns(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for %s: %w", tableName, err)
		}
		table.Columns = columns
		table.PrimaryKeys = primaryKeys(columns)

		fks, err := schemaRepo.GetForeignKeys(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get foreign keys for %s: %w", tableName, err)
		}
		table.ForeignKeys = fks

		uniques, err := schemaRepo.GetUniqueColumns(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get unique columns for %s: %w", tableName, err)
		}
		table.UniqueColumns = uniques

		tables = append(tables, table)
	}

	return tables, nil
}

// primaryKeys orders PK columns by their position in the key.
func primaryKeys(columns []models.Column) []string {
	var pks []string
	for pos := 1; ; pos++ {
		found := false
		for _, c := range columns {
			if c.PK == pos {
				pks = append(pks, c.Name)
				found = true
			}
		}
		if !found {
			return pks
		}
	}
}

func buildRelationships(tables []models.Table) []models.Relationship {
	var relationships []models.Relationship
	junctionTables := detectJunctionTables(tables)

	for _, table := range tables {
		// Junction tables become many-to-many links between their targets
		if junctionTables[table.Name] {
			for i := 0; i < len(table.ForeignKeys); i++ {
				for j := i + 1; j < len(table.ForeignKeys); j++ {
					relationships = append(relationships, models.Relationship{
						FromTable: table.ForeignKeys[i].ToTable,
						ToTable:   table.ForeignKeys[j].ToTable,
						Type:      "}o--o{",
					})
				}
			}
			continue
		}

		for _, fk := range table.ForeignKeys {
			relType := "||--o{" // Default: one-to-many
			if utils.Contains(table.UniqueColumns, fk.FromColumn) ||
				(len(table.PrimaryKeys) == 1 && table.PrimaryKeys[0] == fk.FromColumn) {
				relType = "||--||"
			}

			relationships = append(relationships, models.Relationship{
				FromTable: fk.ToTable,
				ToTable:   table.Name,
				Type:      relType,
			})
		}
	}

	return relationships
}

func detectJunctionTables(tables []models.Table) map[string]bool {
	junctionTables := make(map[string]bool)
	for _, table := range tables {
		if len(table.ForeignKeys) < minJunctionTableFKs ||
			len(table.PrimaryKeys) < minJunctionTableFKs ||
			len(table.Columns) > maxJunctionTableColumns {
			continue
		}

		allFKsInPK := true
		for _, fk := range table.ForeignKeys {
			if !utils.Contains(table.PrimaryKeys, fk.FromColumn) {
				allFKsInPK = false
				break
			}
		}
		if allFKsInPK {
			junctionTables[table.Name] = true
		}
	}
	return junctionTables
}

func generateMermaid(tables []models.Table, relationships []models.Relationship) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	if len(relationships) > 0 {
		seen := make(map[string]bool)
		for _, rel := range relationships {
			key := fmt.Sprintf("%s:%s:%s", rel.FromTable, rel.Type, rel.ToTable)
			if seen[key] {
				continue
			}
			seen[key] = true

			// Mermaid requires a label, an empty one hides it
			sb.WriteString(fmt.Sprintf("    %s %s %s : \"\"\n",
				mermaidName(rel.FromTable),
				rel.Type,
				mermaidName(rel.ToTable)))
		}
		sb.WriteString("\n")
	}

	for _, table := range tables {
		sb.WriteString(fmt.Sprintf("    %s {\n", mermaidName(table.Name)))

		for _, col := range table.Columns {
			var annotations []string
			if col.PK > 0 {
				annotations = append(annotations, "PK")
			}
			if isForeignKey(table.ForeignKeys, col.Name) {
				annotations = append(annotations, "FK")
			}
			if utils.Contains(table.UniqueColumns, col.Name) {
				annotations = append(annotations, "UK")
			}

			line := fmt.Sprintf("        %s %s", simplifyDataType(col.DataType), mermaidName(col.Name))
			if len(annotations) > 0 {
				line += " " + strings.Join(annotations, ",")
			}
			sb.WriteString(line + "\n")
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

// mermaidName upper-cases and replaces characters Mermaid does not accept
// in entity and attribute names.
func mermaidName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r == '_' || r == '-' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// simplifyDataType maps a declared SQLite type to a short Mermaid type
// following SQLite's column affinity rules.
func simplifyDataType(dataType string) string {
	dt := strings.ToLower(strings.TrimSpace(dataType))

	switch {
	case dt == "":
		return "blob"
	case strings.Contains(dt, "int"):
		return "int"
	case strings.Contains(dt, "char"), strings.Contains(dt, "clob"), strings.Contains(dt, "text"):
		if strings.HasPrefix(dt, "varchar") {
			return "varchar"
		}
		return "text"
	case strings.Contains(dt, "blob"):
		return "blob"
	case strings.Contains(dt, "real"), strings.Contains(dt, "floa"), strings.Contains(dt, "doub"):
		return "real"
	case strings.HasPrefix(dt, "bool"):
		return "boolean"
	case strings.HasPrefix(dt, "datetime"), strings.HasPrefix(dt, "timestamp"):
		return "datetime"
	case dt == "date":
		return "date"
	case strings.HasPrefix(dt, "decimal"), strings.HasPrefix(dt, "numeric"):
		return "numeric"
	default:
		return mermaidName(strings.Fields(dt)[0])
	}
}

func isForeignKey(fks []models.ForeignKey, colName string) bool {
	for _, fk := range fks {
		if fk.FromColumn == colName {
			return true
		}
	}
	return false
}
