package dataset

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/template"

	_ "github.com/lib/pq"
)

// Column names expected from the configured work-order query.
var pgRequiredColumns = []string{
	"date_created",
	"todo_dt",
	"priority",
	"assign_to",
	"response_time_min",
	"resolution_time_min",
	"sla_respond_met",
	"sla_resolution_met",
}

// loadPostgres pulls work orders from a source database. The query template
// comes from config.yaml so operators can adjust column mapping without a
// rebuild; the DSN is the configured source URI itself.
func (l *Loader) loadPostgres(ctx context.Context, dsn string) ([]WorkOrder, ParseStats, error) {
	var stats ParseStats

	query, err := executeTemplateQuery(l.cfg.Queries.WorkOrders, map[string]interface{}{
		"Table": l.cfg.Queries.WorkOrdersTable,
	})
	if err != nil {
		return nil, stats, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, stats, fmt.Errorf("failed to reach source database: %w", err)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, stats, fmt.Errorf("work order query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to inspect query columns: %w", err)
	}

	var missing []string
	for _, c := range pgRequiredColumns {
		if !hasColumn(cols, c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	stats.HasSubCategory = hasColumn(cols, "sub_category")

	var orders []WorkOrder
	for rows.Next() {
		var (
			dateCreated   sql.NullTime
			todoDate      sql.NullTime
			priority      sql.NullString
			assignTo      sql.NullString
			responseMin   sql.NullFloat64
			resolutionMin sql.NullFloat64
			respondMet    sql.NullBool
			resolutionMet sql.NullBool
			subCategory   sql.NullString
		)

		known := map[string]interface{}{
			"date_created":        &dateCreated,
			"todo_dt":             &todoDate,
			"priority":            &priority,
			"assign_to":           &assignTo,
			"response_time_min":   &responseMin,
			"resolution_time_min": &resolutionMin,
			"sla_respond_met":     &respondMet,
			"sla_resolution_met":  &resolutionMet,
			"sub_category":        &subCategory,
		}

		// Bind by column name, so operators may order (and extend) the
		// configured query freely. Unknown columns land in Extras.
		extras := make([]sql.NullString, len(cols))
		dest := make([]interface{}, len(cols))
		var extraCols []int
		for i, c := range cols {
			if holder, ok := known[c]; ok {
				dest[i] = holder
			} else {
				dest[i] = &extras[i]
				extraCols = append(extraCols, i)
			}
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, stats, fmt.Errorf("failed to scan work order: %w", err)
		}

		w := WorkOrder{
			Priority: priority.String,
			AssignTo: assignTo.String,
		}
		if dateCreated.Valid {
			t := dateCreated.Time
			w.DateCreated = &t
		}
		if todoDate.Valid {
			t := todoDate.Time
			w.ToDoDate = &t
		}
		if responseMin.Valid {
			v := responseMin.Float64
			w.ResponseTimeMin = &v
		}
		if resolutionMin.Valid {
			v := resolutionMin.Float64
			w.ResolutionTimeMin = &v
		}
		if respondMet.Valid {
			v := respondMet.Bool
			w.SLARespondMet = &v
		}
		if resolutionMet.Valid {
			v := resolutionMet.Bool
			w.SLAResolutionMet = &v
		}
		if stats.HasSubCategory && subCategory.Valid && subCategory.String != "" {
			v := subCategory.String
			w.SubCategory = &v
		}
		for _, i := range extraCols {
			if extras[i].Valid && extras[i].String != "" {
				if w.Extras == nil {
					w.Extras = make(map[string]string)
				}
				w.Extras[cols[i]] = extras[i].String
			}
		}
		w.SLARespondStatus = StatusOf(w.SLARespondMet)
		w.SLAResolutionStatus = StatusOf(w.SLAResolutionMet)

		orders = append(orders, w)
	}
	if err := rows.Err(); err != nil {
		return nil, stats, fmt.Errorf("work order rows failed: %w", err)
	}

	stats.Rows = len(orders)
	return orders, stats, nil
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

// executeTemplateQuery renders a query template with parameters
func executeTemplateQuery(queryTemplate string, params map[string]interface{}) (string, error) {
	tmpl, err := template.New("query").Parse(queryTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse query template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to execute query template: %w", err)
	}

	return buf.String(), nil
}
