package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
)

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "report: marshal %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}

type masterSummary struct {
	RunID      string              `json:"run_id"`
	Query      model.Query         `json:"query"`
	Stats      model.Stats         `json:"stats"`
	Businesses []businessSummary   `json:"businesses"`
	Stages     []model.StageReport `json:"stages"`
}

// writeJSONFiles writes master_summary.json and one profile.json per business.
func writeJSONFiles(folder string, rep *campaignReport) error {
	r := rep.result
	master := masterSummary{
		RunID:      r.RunID,
		Query:      r.Query,
		Stats:      r.Stats,
		Businesses: rep.businesses,
		Stages:     r.Stages,
	}
	if master.Businesses == nil {
		master.Businesses = []businessSummary{}
	}
	if err := writeJSON(filepath.Join(folder, "master_summary.json"), master); err != nil {
		return err
	}

	for i := range r.Entities {
		dir, err := ensureBusinessDir(folder, rep.businesses[i].Dir)
		if err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(dir, "profile.json"), &r.Entities[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeCSVFiles writes master_summary.csv and one contacts.csv per business.
func writeCSVFiles(folder string, rep *campaignReport) error {
	rows := make([][]string, 0, len(rep.businesses))
	for _, b := range rep.businesses {
		rows = append(rows, b.row())
	}
	if err := writeCSV(filepath.Join(folder, "master_summary.csv"), summaryHeader, rows); err != nil {
		return err
	}

	for _, b := range rep.businesses {
		dir, err := ensureBusinessDir(folder, b.Dir)
		if err != nil {
			return err
		}
		var contactRows [][]string
		for _, c := range rep.contactsOf(b.ID) {
			contactRows = append(contactRows, c.row())
		}
		if err := writeCSV(filepath.Join(dir, "contacts.csv"), contactHeader, contactRows); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "report: flush %s", path)
	}
	return f.Close()
}

func ensureBusinessDir(folder, name string) (string, error) {
	dir := filepath.Join(folder, "businesses", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create folder %s", dir)
	}
	return dir, nil
}

// writeText writes the human-readable summary.txt.
func writeText(path string, rep *campaignReport) error {
	r := rep.result
	var b strings.Builder
	fmt.Fprintf(&b, "Lead Generation Campaign\n")
	fmt.Fprintf(&b, "========================\n\n")
	fmt.Fprintf(&b, "Run ID:    %s\n", r.RunID)
	fmt.Fprintf(&b, "Industry:  %s\n", r.Query.Industry)
	fmt.Fprintf(&b, "Location:  %s\n", r.Query.Location)
	fmt.Fprintf(&b, "Limit:     %d\n", r.Query.Limit)
	fmt.Fprintf(&b, "Started:   %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if !r.CompletedAt.IsZero() {
		fmt.Fprintf(&b, "Duration:  %s\n", r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}

	s := r.Stats
	fmt.Fprintf(&b, "\nResults\n-------\n")
	fmt.Fprintf(&b, "Businesses:               %d\n", s.Entities)
	fmt.Fprintf(&b, "Contacts:                 %d\n", s.Contacts)
	fmt.Fprintf(&b, "Decision makers:          %d\n", s.DecisionMakers)
	fmt.Fprintf(&b, "Avg discovery confidence: %.3f\n", s.AvgDiscoveryConfidence)
	fmt.Fprintf(&b, "Avg quality score:        %.3f\n", s.AvgQualityScore)
	fmt.Fprintf(&b, "Avg extraction score:     %.3f\n", s.AvgExtractionScore)
	fmt.Fprintf(&b, "Adapter failures:         %d\n", s.AdapterFailures)

	fmt.Fprintf(&b, "\nStages\n------\n")
	for _, st := range r.Stages {
		fmt.Fprintf(&b, "%-12s records=%d survivors=%d failures=%d duration=%dms\n",
			st.Stage, st.Records, st.Survivors, len(st.Failures), st.DurationMS)
	}

	fmt.Fprintf(&b, "\nBusinesses\n----------\n")
	for i, bs := range rep.businesses {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, bs.Name, bs.Source)
		fmt.Fprintf(&b, "   quality=%.3f extraction=%.3f contacts=%d decision_makers=%d\n",
			bs.QualityScore, bs.ExtractionScore, bs.Contacts, bs.DecisionMakers)
		if bs.TopContact != "" {
			fmt.Fprintf(&b, "   top contact: %s", bs.TopContact)
			if bs.TopContactTitle != "" {
				fmt.Fprintf(&b, ", %s", bs.TopContactTitle)
			}
			b.WriteString("\n")
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}
