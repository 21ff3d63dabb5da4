package models

import (
	"fmt"
	"strings"
)

// Column mirrors one row of PRAGMA table_info.
type Column struct {
	CID      int     `json:"cid"`
	Name     string  `json:"name"`
	DataType string  `json:"type"`
	NotNull  bool    `json:"not_null"`
	Default  *string `json:"default,omitempty"`
	PK       int     `json:"pk"`
}

// Label renders the column the way the tables panel shows it:
// "name (TYPE)" followed by NOT NULL, PK and DEFAULT markers.
func (c Column) Label() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)", c.Name, c.DataType))
	if c.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if c.PK > 0 {
		sb.WriteString(" PK")
	}
	if c.Default != nil {
		sb.WriteString(" DEFAULT " + *c.Default)
	}
	return sb.String()
}

type ForeignKey struct {
	ID         int    `json:"id"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
	OnUpdate   string `json:"on_update,omitempty"`
	OnDelete   string `json:"on_delete,omitempty"`
}

type Table struct {
	Name          string       `json:"name"`
	Color         string       `json:"color"`
	Columns       []Column     `json:"columns"`
	PrimaryKeys   []string     `json:"primary_keys,omitempty"`
	ForeignKeys   []ForeignKey `json:"foreign_keys,omitempty"`
	UniqueColumns []string     `json:"unique_columns,omitempty"`
}

type Relationship struct {
	FromTable string
	ToTable   string
	Type      string // "||--o{", "||--||", "}o--o{"
}
