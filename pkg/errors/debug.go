package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is a log-friendly flattening of an error chain.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	if pg := postgresDetails(err); pg != nil {
		d.PGCode = pg.Code
		d.PGConstraint = pg.ConstraintName
		d.PGTable = pg.TableName
		d.PGDetail = pg.Detail
		d.PGMessage = pg.Message
	}
	return d
}

// Fields renders the dump as structured log fields, skipping empty postgres values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	for key, value := range map[string]string{
		"pg_code":       d.PGCode,
		"pg_constraint": d.PGConstraint,
		"pg_table":      d.PGTable,
		"pg_detail":     d.PGDetail,
		"pg_message":    d.PGMessage,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

// PostgresCode returns the SQLSTATE carried by a pgx or lib/pq error, or "".
func PostgresCode(err error) string {
	if pg := postgresDetails(err); pg != nil {
		return pg.Code
	}
	return ""
}

// PostgresConstraint returns the violated constraint name, or "".
func PostgresConstraint(err error) string {
	if pg := postgresDetails(err); pg != nil {
		return pg.ConstraintName
	}
	return ""
}

func postgresDetails(err error) *pgconn.PgError {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &pgconn.PgError{
			Code:           string(pqErr.Code),
			ConstraintName: pqErr.Constraint,
			TableName:      pqErr.Table,
			ColumnName:     pqErr.Column,
			Detail:         pqErr.Detail,
			Message:        pqErr.Message,
		}
	}
	return nil
}
