package domain

import "fmt"

type SourceType string

const (
	SourceTypeDuckDB     SourceType = "duckdb"
	SourceTypeSnowflake  SourceType = "snowflake"
	SourceTypeDatabricks SourceType = "databricks"
)

// SourceProfile is a named segment statistics connection.
type SourceProfile struct {
	Name  string
	Type  SourceType
	DSN   string
	Table string
}

func (s SourceProfile) String() string {
	return fmt.Sprintf("%s:%s", s.Type, s.Name)
}
