// Package adpimport reads average draft position tables out of HTML documents.
//
// The first table carrying both a player column and an ADP column is used.
// Recognised headers (case-insensitive):
//   - player: "name", "player", "player name"
//   - position: "pos", "position"
//   - team: "team", "tm"
//   - adp: "adp", "avg", "average", "avg. pick"
//
// Position cells such as "WR12" are reduced to their position code.
package adpimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

// ErrNoTable is returned when no table in the document has player and ADP columns.
var ErrNoTable = errors.New("adpimport: no ADP table found")

const (
	colName = "name"
	colPos  = "position"
	colTeam = "team"
	colADP  = "adp"
)

var headerAliases = map[string]string{
	"name":        colName,
	"player":      colName,
	"player name": colName,
	"pos":         colPos,
	"position":    colPos,
	"team":        colTeam,
	"tm":          colTeam,
	"adp":         colADP,
	"avg":         colADP,
	"average":     colADP,
	"avg. pick":   colADP,
}

var posRank = regexp.MustCompile(`^([A-Za-z/]+)\d*$`)

// Parse extracts ADP rows from an HTML document.
func Parse(r io.Reader) ([]model.ADPEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("adpimport: parse html: %w", err)
	}

	var (
		rows  []model.ADPEntry
		found bool
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols := headerColumns(table)
		if _, ok := cols[colName]; !ok {
			return true
		}
		if _, ok := cols[colADP]; !ok {
			return true
		}
		found = true
		rows = tableRows(table, cols)
		return false
	})
	if !found {
		return nil, ErrNoTable
	}
	return rows, nil
}

// headerColumns maps canonical column names to cell indexes of the header row.
func headerColumns(table *goquery.Selection) map[string]int {
	cols := make(map[string]int)
	header := table.Find("thead tr").First()
	if header.Length() == 0 {
		header = table.Find("tr").First()
	}
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		label := strings.ToLower(strings.Join(strings.Fields(cell.Text()), " "))
		if canon, ok := headerAliases[label]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
		}
	})
	return cols
}

func tableRows(table *goquery.Selection, cols map[string]int) []model.ADPEntry {
	var out []model.ADPEntry
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		cell := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= cells.Length() {
				return ""
			}
			return strings.Join(strings.Fields(cells.Eq(i).Text()), " ")
		}

		name := cell(colName)
		adp, err := strconv.ParseFloat(strings.ReplaceAll(cell(colADP), ",", ""), 64)
		if name == "" || err != nil {
			return
		}
		entry := model.ADPEntry{
			Name: name,
			Team: strings.ToUpper(cell(colTeam)),
			ADP:  adp,
		}
		if pos := cell(colPos); pos != "" {
			if m := posRank.FindStringSubmatch(pos); m != nil {
				pos = m[1]
			}
			p, _ := model.ParsePosition(pos)
			entry.Position = string(p)
		}
		if id, ok := cells.Eq(cols[colName]).Attr("data-player-id"); ok {
			entry.PlayerID = strings.TrimSpace(id)
		}
		out = append(out, entry)
	})
	return out
}

// FileSource serves ADP rows from an HTML file, re-read on every call so edits are picked up.
type FileSource struct {
	path string
	log  logger.Logger
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, log logger.Logger) *FileSource {
	if log == nil {
		log = logger.Nop()
	}
	return &FileSource{path: path, log: log}
}

// ADP parses the file. The season is ignored; the file is assumed to describe the current one.
func (s *FileSource) ADP(ctx context.Context, season int) ([]model.ADPEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("adpimport: open %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := Parse(f)
	if err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "adp table imported",
		logger.String("path", s.path), logger.Int("season", season), logger.Int("rows", len(rows)))
	return rows, nil
}
