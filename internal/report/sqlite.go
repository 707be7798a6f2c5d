package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS campaigns (
	run_id       TEXT PRIMARY KEY,
	industry     TEXT NOT NULL,
	location     TEXT NOT NULL,
	query_limit  INTEGER NOT NULL,
	status       TEXT NOT NULL,
	stats        TEXT NOT NULL,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS businesses (
	id                   TEXT NOT NULL,
	run_id               TEXT NOT NULL REFERENCES campaigns(run_id),
	name                 TEXT NOT NULL,
	source               TEXT,
	address              TEXT,
	phone                TEXT,
	website              TEXT,
	discovery_confidence REAL NOT NULL DEFAULT 0,
	quality_score        REAL NOT NULL DEFAULT 0,
	extraction_score     REAL NOT NULL DEFAULT 0,
	profile              TEXT NOT NULL,
	PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS contacts (
	id                   TEXT PRIMARY KEY,
	run_id               TEXT NOT NULL,
	business_id          TEXT NOT NULL,
	name                 TEXT NOT NULL,
	title                TEXT,
	email                TEXT,
	phone                TEXT,
	linkedin_url         TEXT,
	source               TEXT NOT NULL,
	confidence           REAL NOT NULL DEFAULT 0,
	decision_maker_score REAL NOT NULL DEFAULT 0,
	decision_maker       INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (run_id, business_id) REFERENCES businesses(run_id, id)
);

CREATE INDEX IF NOT EXISTS idx_businesses_run_id ON businesses(run_id);
CREATE INDEX IF NOT EXISTS idx_contacts_business_id ON contacts(run_id, business_id);
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
`

// writeSQLite writes campaign.db holding the campaign, its businesses and
// their contacts.
func writeSQLite(ctx context.Context, path string, rep *campaignReport) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrap(err, "sqlite: open")
	}
	defer db.Close() //nolint:errcheck

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertCampaign(ctx, tx, rep); err != nil {
		return err
	}
	if err := insertBusinesses(ctx, tx, rep); err != nil {
		return err
	}
	if err := insertContacts(ctx, tx, rep); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func insertCampaign(ctx context.Context, tx *sql.Tx, rep *campaignReport) error {
	r := rep.result
	stats, err := json.Marshal(r.Stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}
	var completed any
	if !r.CompletedAt.IsZero() {
		completed = r.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO campaigns (run_id, industry, location, query_limit, status, stats, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Query.Industry, r.Query.Location, r.Query.Limit, string(r.Status), string(stats),
		r.StartedAt.UTC().Format(time.RFC3339), completed,
	)
	return eris.Wrap(err, "sqlite: insert campaign")
}

func insertBusinesses(ctx context.Context, tx *sql.Tx, rep *campaignReport) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO businesses (id, run_id, name, source, address, phone, website,
		 discovery_confidence, quality_score, extraction_score, profile)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare businesses")
	}
	defer stmt.Close() //nolint:errcheck

	for i, b := range rep.businesses {
		profile, err := json.Marshal(&rep.result.Entities[i])
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal profile %s", b.ID)
		}
		if _, err := stmt.ExecContext(ctx,
			b.ID, rep.result.RunID, b.Name, b.Source, b.Address, b.Phone, b.Website,
			b.DiscoveryConfidence, b.QualityScore, b.ExtractionScore, string(profile),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert business %s", b.ID)
		}
	}
	return nil
}

func insertContacts(ctx context.Context, tx *sql.Tx, rep *campaignReport) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO contacts (id, run_id, business_id, name, title, email, phone, linkedin_url,
		 source, confidence, decision_maker_score, decision_maker)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare contacts")
	}
	defer stmt.Close() //nolint:errcheck

	for _, c := range rep.contacts {
		dm := 0
		if c.IsDM {
			dm = 1
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), rep.result.RunID, c.EntityID, c.Contact.Name, c.Contact.Title, c.Contact.Email,
			c.Contact.Phone, c.Contact.LinkedInURL, c.Contact.Source,
			c.Contact.Confidence, c.Contact.DecisionMakerScore, dm,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert contact for %s", c.EntityID)
		}
	}
	return nil
}
