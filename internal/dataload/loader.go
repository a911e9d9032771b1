// Package dataload reads the canonical flat-file exports: the entity
// hierarchy (Entities.csv), link grade history (site_grades.csv), and
// per-device KPI JSON dumps. Files are parsed lazily on first use and
// indexed in memory; the loader then serves the correlation engine's
// data-access interface directly.
package dataload

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vsatops/linksight/internal/analysis"
	"github.com/vsatops/linksight/internal/correlation"
	"github.com/vsatops/linksight/pkg/models"
)

const (
	entitiesFile = "Entities.csv"
	gradesFile   = "site_grades.csv"
)

// ErrMissingColumn means a required CSV column is absent from the
// header.
var ErrMissingColumn = errors.New("missing required column")

// Loader serves entities and grades from a data directory. Safe for
// concurrent use after construction; all parsing happens once, on
// first access.
type Loader struct {
	dir string

	once    sync.Once
	loadErr error

	sites          map[int64]*models.Site
	linksByID      map[int64]models.Link
	linksByNetwork map[int64][]models.Link
	linksBySite    map[int64][]models.Link
	grades         map[int64][]models.LinkGrade
}

var _ correlation.GradeProvider = (*Loader)(nil)

// New points a loader at a directory holding Entities.csv and
// site_grades.csv. Nothing is read until the first query.
func New(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) ensure() error {
	l.once.Do(func() {
		l.sites = map[int64]*models.Site{}
		l.linksByID = map[int64]models.Link{}
		l.linksByNetwork = map[int64][]models.Link{}
		l.linksBySite = map[int64][]models.Link{}
		l.grades = map[int64][]models.LinkGrade{}

		if err := l.loadEntities(); err != nil {
			l.loadErr = err
			return
		}
		if err := l.loadGrades(); err != nil {
			l.loadErr = err
			return
		}
		slog.Info("data directory loaded", "dir", l.dir,
			"sites", len(l.sites), "links", len(l.linksByID))
	})
	return l.loadErr
}

// LinksInNetwork returns every link of one network.
func (l *Loader) LinksInNetwork(ctx context.Context, networkID int64) ([]models.Link, error) {
	if err := l.ready(ctx); err != nil {
		return nil, err
	}
	return l.linksByNetwork[networkID], nil
}

// Site returns one site, nil when unknown.
func (l *Loader) Site(ctx context.Context, siteID int64) (*models.Site, error) {
	if err := l.ready(ctx); err != nil {
		return nil, err
	}
	return l.sites[siteID], nil
}

// LinksAtSite returns every link terminating at one site.
func (l *Loader) LinksAtSite(ctx context.Context, siteID int64) ([]models.Link, error) {
	if err := l.ready(ctx); err != nil {
		return nil, err
	}
	return l.linksBySite[siteID], nil
}

// LinksForSatellite returns links whose type mentions the satellite
// name, case-insensitively.
func (l *Loader) LinksForSatellite(ctx context.Context, satellite string) ([]models.Link, error) {
	if err := l.ready(ctx); err != nil {
		return nil, err
	}
	needle := strings.ToLower(satellite)
	var out []models.Link
	for _, id := range l.sortedLinkIDs() {
		link := l.linksByID[id]
		if strings.Contains(strings.ToLower(link.Type), needle) {
			out = append(out, link)
		}
	}
	return out, nil
}

// LinkGrades returns one link's grade records at or after since, in
// timestamp order.
func (l *Loader) LinkGrades(ctx context.Context, linkID int64, since time.Time) ([]models.LinkGrade, error) {
	if err := l.ready(ctx); err != nil {
		return nil, err
	}
	all := l.grades[linkID]
	idx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(since)
	})
	return all[idx:], nil
}

func (l *Loader) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.ensure()
}

func (l *Loader) sortedLinkIDs() []int64 {
	ids := make([]int64, 0, len(l.linksByID))
	for id := range l.linksByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// loadEntities flattens the customer/network/site/link hierarchy. One
// CSV row carries the full path, so sites repeat across their links.
func (l *Loader) loadEntities() error {
	path := filepath.Join(l.dir, entitiesFile)
	rows, header, err := readCSV(path)
	if err != nil {
		return err
	}
	cols, err := columnIndex(header, path,
		"siteid", "sitename", "sitetype", "sitecountry", "sitecity",
		"linkid", "linkname", "linktype", "networkid")
	if err != nil {
		return err
	}

	for _, row := range rows {
		siteID, err := strconv.ParseInt(row[cols["siteid"]], 10, 64)
		if err != nil {
			continue
		}
		if _, ok := l.sites[siteID]; !ok {
			l.sites[siteID] = &models.Site{
				SiteID:  siteID,
				Name:    row[cols["sitename"]],
				Type:    row[cols["sitetype"]],
				Country: row[cols["sitecountry"]],
				City:    row[cols["sitecity"]],
			}
		}

		linkID, err := strconv.ParseInt(row[cols["linkid"]], 10, 64)
		if err != nil {
			continue
		}
		networkID, _ := strconv.ParseInt(row[cols["networkid"]], 10, 64)
		if _, ok := l.linksByID[linkID]; ok {
			continue
		}
		link := models.Link{
			LinkID:    linkID,
			SiteID:    siteID,
			NetworkID: networkID,
			Name:      row[cols["linkname"]],
			Type:      row[cols["linktype"]],
		}
		l.linksByID[linkID] = link
		l.linksByNetwork[networkID] = append(l.linksByNetwork[networkID], link)
		l.linksBySite[siteID] = append(l.linksBySite[siteID], link)
	}
	return nil
}

func (l *Loader) loadGrades() error {
	path := filepath.Join(l.dir, gradesFile)
	rows, header, err := readCSV(path)
	if err != nil {
		return err
	}
	cols, err := columnIndex(header, path,
		"link_id", "timestamp", "grade", "availability",
		"ib_degradation", "ob_degradation", "ib_instability",
		"ob_instability", "congestion", "latency")
	if err != nil {
		return err
	}

	for _, row := range rows {
		linkID, err := strconv.ParseInt(row[cols["link_id"]], 10, 64)
		if err != nil {
			continue
		}
		ts, ok := parseTimestamp(row[cols["timestamp"]])
		if !ok {
			continue
		}
		l.grades[linkID] = append(l.grades[linkID], models.LinkGrade{
			LinkID:        linkID,
			Timestamp:     ts,
			Grade:         parseFloat(row[cols["grade"]]),
			Availability:  parseFloat(row[cols["availability"]]),
			IBDegradation: parseFloat(row[cols["ib_degradation"]]),
			OBDegradation: parseFloat(row[cols["ob_degradation"]]),
			IBInstability: parseFloat(row[cols["ib_instability"]]),
			OBInstability: parseFloat(row[cols["ob_instability"]]),
			Congestion:    parseFloat(row[cols["congestion"]]),
			Latency:       parseFloat(row[cols["latency"]]),
		})
	}
	for _, grades := range l.grades {
		sort.Slice(grades, func(i, j int) bool {
			return grades[i].Timestamp.Before(grades[j].Timestamp)
		})
	}
	return nil
}

// ReadRecordsCSV parses an arbitrary metrics CSV into scoring records.
// Numeric cells become float64, everything else stays a string; a
// "timestamp" column is passed through for the extractor to resolve.
func ReadRecordsCSV(path string) ([]analysis.Record, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	records := make([]analysis.Record, 0, len(rows))
	for _, row := range rows {
		rec := analysis.Record{}
		for i, col := range header {
			if row[i] == "" {
				continue
			}
			if f, err := strconv.ParseFloat(row[i], 64); err == nil {
				rec[col] = f
			} else {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadKPIJSON parses a device KPI dump: a JSON array of flat metric
// objects.
func ReadKPIJSON(path string) ([]analysis.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kpi file: %w", err)
	}
	var records []analysis.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode kpi file %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

func readCSV(path string) (rows [][]string, header []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	// The header fixes the record width; ragged rows come back as
	// csv.ErrFieldCount instead of panicking a later column lookup.
	r := csv.NewReader(f)
	header, err = r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

func columnIndex(header []string, path string, required ...string) (map[string]int, error) {
	idx := map[string]int{}
	for i, col := range header {
		idx[col] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s: %w: %s", filepath.Base(path), ErrMissingColumn, col)
		}
	}
	return idx, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
