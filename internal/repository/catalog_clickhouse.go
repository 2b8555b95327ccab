package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CosmicOptic/internal/domain/models"
	domrepo "CosmicOptic/internal/domain/repository"
	pkgch "CosmicOptic/pkg/clickhouse"
	applogger "CosmicOptic/pkg/logger"
)

// DefaultSamplesTable holds catalog rows when catalog.source is clickhouse.
const DefaultSamplesTable = "cosmicoptic.samples"

// SamplesSchema returns the idempotent DDL for the samples table, creating
// the database first when the table name is qualified.
func SamplesSchema(table string) []string {
	if table == "" {
		table = DefaultSamplesTable
	}
	var stmts []string
	if db, _, ok := strings.Cut(table, "."); ok {
		stmts = append(stmts, "CREATE DATABASE IF NOT EXISTS "+db)
	}
	return append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            position UInt32,
            id String,
            name String,
            description String,
            truth LowCardinality(String),
            period_days Nullable(Float64),
            transit_depth Nullable(Float64),
            transit_duration_hours Nullable(Float64),
            planet_radius_earth Nullable(Float64),
            anomaly_type Nullable(String)
        ) ENGINE = ReplacingMergeTree ORDER BY id`, table),
	)
}

// CHCatalogSource loads the sample catalog from ClickHouse.
type CHCatalogSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHCatalogSource(ch *pkgch.Client, table string) *CHCatalogSource {
	if table == "" {
		table = DefaultSamplesTable
	}
	return &CHCatalogSource{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHCatalogSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCatalogSource) Name() string { return "clickhouse:" + s.table }

func (s *CHCatalogSource) Load(ctx context.Context) ([]models.Sample, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT id, name, description, truth,
               period_days, transit_depth, transit_duration_hours, planet_radius_earth, anomaly_type
        FROM %s FINAL
        ORDER BY position ASC, id ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.logError("clickhouse load_samples query error", err)
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	out := make([]models.Sample, 0, 16)
	for rows.Next() {
		var (
			smp                     models.Sample
			truth                   string
			period, depth, dur, rad sql.NullFloat64
			anomaly                 sql.NullString
		)
		if err := rows.Scan(&smp.ID, &smp.Name, &smp.Description, &truth,
			&period, &depth, &dur, &rad, &anomaly); err != nil {
			s.logError("clickhouse load_samples scan error", err)
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		smp.Truth = models.Truth(truth)
		smp.Params = models.SampleParams{
			PeriodDays:      nullFloat(period),
			TransitDepth:    nullFloat(depth),
			TransitDuration: nullFloat(dur),
			PlanetRadius:    nullFloat(rad),
		}
		if anomaly.Valid {
			smp.Params.AnomalyType = anomaly.String
		}
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse load_samples rows error", err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse load_samples ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Seed inserts samples in order, replacing rows with the same id.
func (s *CHCatalogSource) Seed(ctx context.Context, samples []models.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (position, id, name, description, truth,
        period_days, transit_depth, transit_duration_hours, planet_radius_earth, anomaly_type)`, s.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	for i, smp := range samples {
		var anomaly *string
		if smp.Params.AnomalyType != "" {
			a := smp.Params.AnomalyType
			anomaly = &a
		}
		if _, err := stmt.ExecContext(ctx, uint32(i), smp.ID, smp.Name, smp.Description, string(smp.Truth),
			smp.Params.PeriodDays, smp.Params.TransitDepth, smp.Params.TransitDuration,
			smp.Params.PlanetRadius, anomaly); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("seed %s: %w", smp.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func (s *CHCatalogSource) logError(msg string, err error) {
	if s.l != nil {
		s.l.Error(msg, applogger.String("table", s.table), applogger.Error(err))
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}

var _ domrepo.CatalogSource = (*CHCatalogSource)(nil)
