// Package dbtypes holds column types shared by the Postgres schema and its
// sqlite mirror.
package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// UUIDArray is a uuid[] column. Values travel in the Postgres array literal
// form {a,b}, which sqlite keeps as plain text.
type UUIDArray []uuid.UUID

// GormDBDataType picks the column type per dialect.
func (UUIDArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "uuid[]"
	}
	return "text"
}

func (a *UUIDArray) Scan(src any) error {
	var literal string
	switch v := src.(type) {
	case nil:
	case string:
		literal = v
	case []byte:
		literal = string(v)
	default:
		return fmt.Errorf("dbtypes: cannot scan %T into UUIDArray", src)
	}
	ids, err := parseArrayLiteral(literal)
	if err != nil {
		return err
	}
	*a = ids
	return nil
}

func (a UUIDArray) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	b.WriteByte('}')
	return b.String(), nil
}

func (a UUIDArray) Contains(id uuid.UUID) bool {
	return slices.Contains(a, id)
}

// parseArrayLiteral reads {id,"id",...}; elements may be quoted.
func parseArrayLiteral(literal string) (UUIDArray, error) {
	body := strings.TrimSpace(literal)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")

	ids := UUIDArray{}
	for _, elem := range strings.Split(body, ",") {
		elem = strings.Trim(strings.TrimSpace(elem), `"`)
		if elem == "" {
			continue
		}
		id, err := uuid.Parse(elem)
		if err != nil {
			return nil, fmt.Errorf("dbtypes: uuid array element %q: %w", elem, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
