// Package sanctions loads the restricted-party reference feed and
// builds the immutable lookup index the screener matches against.
// Reloading is caller-driven: build a new List and swap it in; a List
// is never mutated after construction.
package sanctions

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/models"
)

// NormalizeFunc canonicalizes a name the same way the screener
// normalizes query names. Injected so the index and the queries agree
// on one canonical form.
type NormalizeFunc func(string) string

// List is an immutable, indexed sanctions reference set.
type List struct {
	records []models.SanctionRecord

	// exact maps normalized primary names and aliases to a record index.
	exact map[string]int

	// names holds normalized primary names in feed order for fuzzy
	// matching; names[i] belongs to records[i]. Fuzzy matching runs
	// over primary names only; aliases participate in the exact index.
	names []string
}

// NewList indexes the given records.
func NewList(records []models.SanctionRecord, normalize NormalizeFunc) *List {
	l := &List{
		records: records,
		exact:   make(map[string]int, len(records)*2),
		names:   make([]string, len(records)),
	}
	for i, rec := range records {
		name := normalize(rec.Name)
		l.names[i] = name
		if name != "" {
			if _, dup := l.exact[name]; !dup {
				l.exact[name] = i
			}
		}
		for _, alias := range rec.Aliases {
			a := normalize(alias)
			if a == "" {
				continue
			}
			if _, dup := l.exact[a]; !dup {
				l.exact[a] = i
			}
		}
	}
	return l
}

// Exact looks a normalized name up among primary names and aliases.
func (l *List) Exact(normalized string) (models.SanctionRecord, bool) {
	i, ok := l.exact[normalized]
	if !ok {
		return models.SanctionRecord{}, false
	}
	return l.records[i], true
}

// Names returns the normalized primary names in feed order. Callers
// must not mutate the returned slice.
func (l *List) Names() []string { return l.names }

// Record returns the record behind Names()[i].
func (l *List) Record(i int) models.SanctionRecord { return l.records[i] }

// Len is the number of reference records.
func (l *List) Len() int { return len(l.records) }

// LoadCSV reads a sanctions feed in the reference CSV shape:
// header-addressed columns id (or sanction_id), name, aliases
// (pipe-delimited), list_type, program, country. Extra columns are
// ignored.
func LoadCSV(path string, normalize NormalizeFunc) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNotFound, err, "open sanctions feed %s", path)
	}
	defer f.Close()

	records, err := parseCSV(f)
	if err != nil {
		return nil, err
	}
	return NewList(records, normalize), nil
}

func parseCSV(r io.Reader) ([]models.SanctionRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err, "read sanctions feed header")
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	idCol, ok := col["id"]
	if !ok {
		idCol, ok = col["sanction_id"]
	}
	nameCol, nameOK := col["name"]
	if !ok || !nameOK {
		return nil, apperrors.New(apperrors.KindInvalidInput, "sanctions feed missing id/name columns")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []models.SanctionRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInvalidInput, err, "read sanctions feed row")
		}
		if idCol >= len(row) || nameCol >= len(row) {
			continue
		}

		rec := models.SanctionRecord{
			ID:       strings.TrimSpace(row[idCol]),
			Name:     strings.TrimSpace(row[nameCol]),
			ListType: field(row, "list_type"),
			Program:  field(row, "program"),
			Country:  field(row, "country"),
		}
		if rec.Name == "" {
			continue
		}
		if aliases := field(row, "aliases"); aliases != "" {
			for _, a := range strings.Split(aliases, "|") {
				if a = strings.TrimSpace(a); a != "" {
					rec.Aliases = append(rec.Aliases, a)
				}
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
