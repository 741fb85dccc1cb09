package migrate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	fileNamePattern = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	slugStrip       = regexp.MustCompile(`[^a-z0-9]+`)
)

const scaffold = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
SELECT 1;
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 1;
-- +goose StatementEnd
`

// Scaffold writes an empty goose migration <dir>/<UTC version>_<slug>.sql.
func Scaffold(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", errors.New("migration dir is required")
	}
	slug := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, now.UTC().Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration: %w", err)
	}
	if _, err := fmt.Fprintf(f, scaffold, strings.ReplaceAll(slug, "_", " ")); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration: %w", err)
	}
	return path, f.Close()
}

// Check validates every .sql file in the source: file naming, unique and
// plausible versions, and an Up section with SQL in it followed by a Down
// section.
func (s Source) Check() error {
	fsys, err := s.files()
	if err != nil {
		return err
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("list %s: %w", s, err)
	}

	seen := make(map[int64]string, len(entries))
	var problems []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		version, err := parseFileName(name)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if prev, dup := seen[version]; dup {
			problems = append(problems, fmt.Sprintf("version %d used by %s and %s", version, prev, name))
			continue
		}
		seen[version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := checkSections(body); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid migrations in %s:\n  %s", s, strings.Join(problems, "\n  "))
	}
	return nil
}

func parseFileName(name string) (int64, error) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("invalid migration filename %q (want YYYYMMDDHHMMSS_name.sql)", name)
	}
	if _, err := time.Parse(versionLayout, m[1]); err != nil {
		return 0, fmt.Errorf("%s: version is not a timestamp", name)
	}
	return strconv.ParseInt(m[1], 10, 64)
}

func checkSections(body []byte) error {
	var section string
	var upStatements int
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "-- +goose Up":
			if section != "" {
				return errors.New("duplicate or misplaced Up annotation")
			}
			section = "up"
		case line == "-- +goose Down":
			if section != "up" {
				return errors.New("Down annotation before Up")
			}
			section = "down"
		case line == "", strings.HasPrefix(line, "--"):
		case section == "up":
			upStatements++
		case section == "":
			return errors.New("SQL before the Up annotation")
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	switch {
	case section == "":
		return errors.New(`missing "-- +goose Up"`)
	case upStatements == 0:
		return errors.New("Up section has no SQL")
	case section != "down":
		return errors.New(`missing "-- +goose Down"`)
	}
	return nil
}
