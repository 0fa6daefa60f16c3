package store

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/richard-senior/fplodds/internal/logger"
)

// Persistable is a row type whose exported fields carry the persistence tags:
//
//	column:"name"   column name, defaults to the lower cased field name
//	dbtype:"TEXT"   sqlite column type, fields without one are not persisted
//	primary:"true"  part of the primary key
//	index:"true"    gets its own index
type Persistable interface {
	GetTableName() string
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type column struct {
	name    string
	dbType  string
	primary bool
	index   bool
	field   int
}

// columnsOf reads the persistence tags of a row type in field order
func columnsOf(obj any) []column {
	objType := reflect.TypeOf(obj)
	if objType.Kind() == reflect.Ptr {
		objType = objType.Elem()
	}

	var ret []column
	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		if !field.IsExported() {
			continue
		}
		dbType := field.Tag.Get("dbtype")
		if dbType == "" {
			continue
		}
		name := field.Tag.Get("column")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		ret = append(ret, column{
			name:    name,
			dbType:  dbType,
			primary: field.Tag.Get("primary") == "true",
			index:   field.Tag.Get("index") == "true",
			field:   i,
		})
	}
	return ret
}

// generateCreateTableSQL generates CREATE TABLE SQL from struct tags
func generateCreateTableSQL(obj Persistable) string {
	var defs []string
	var primaryKeys []string
	for _, c := range columnsOf(obj) {
		defs = append(defs, fmt.Sprintf("%s %s", c.name, c.dbType))
		if c.primary {
			primaryKeys = append(primaryKeys, c.name)
		}
	}
	if len(primaryKeys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", obj.GetTableName(), strings.Join(defs, ", "))
}

// generateIndexSQL generates index creation SQL from struct tags
func generateIndexSQL(obj Persistable) []string {
	var ret []string
	tableName := obj.GetTableName()
	for _, c := range columnsOf(obj) {
		if !c.index {
			continue
		}
		ret = append(ret, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", tableName, c.name, tableName, c.name))
	}
	return ret
}

// createTable creates the table and its indexes if they do not exist
func createTable(ctx context.Context, q querier, obj Persistable) error {
	createSQL := generateCreateTableSQL(obj)
	logger.Debug("Creating table with SQL", createSQL)
	if _, err := q.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", obj.GetTableName(), err)
	}
	for _, query := range generateIndexSQL(obj) {
		logger.Debug("Creating index with SQL", query)
		if _, err := q.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", obj.GetTableName(), err)
		}
	}
	return nil
}

// insert adds a new record
func insert(ctx context.Context, q querier, obj Persistable) error {
	objValue := reflect.Indirect(reflect.ValueOf(obj))

	var names, placeholders []string
	var values []any
	for _, c := range columnsOf(obj) {
		names = append(names, c.name)
		placeholders = append(placeholders, "?")
		values = append(values, objValue.Field(c.field).Interface())
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		obj.GetTableName(), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if _, err := q.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", obj.GetTableName(), err)
	}
	return nil
}

// deleteAll empties the table of a row type
func deleteAll(ctx context.Context, q querier, obj Persistable) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM "+obj.GetTableName()); err != nil {
		return fmt.Errorf("failed to clear %s: %w", obj.GetTableName(), err)
	}
	return nil
}

// findWhere selects every row of T matching the clause that follows WHERE,
// eg "1 = 1 ORDER BY id". Rows come back in the order the clause asks for
func findWhere[T any, PT interface {
	*T
	Persistable
}](ctx context.Context, q querier, clause string, args ...any) ([]T, error) {
	var zero T
	tableName := PT(&zero).GetTableName()
	cols := columnsOf(PT(&zero))

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(names, ", "), tableName, clause)
	logger.Debug("FindWhere SQL", query)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	var ret []T
	for rows.Next() {
		var row T
		rowValue := reflect.ValueOf(&row).Elem()
		destinations := make([]any, len(cols))
		for i, c := range cols {
			destinations[i] = rowValue.Field(c.field).Addr().Interface()
		}
		if err := rows.Scan(destinations...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tableName, err)
		}
		ret = append(ret, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", tableName, err)
	}
	return ret, nil
}
