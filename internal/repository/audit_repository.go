package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lumenhq/adminapi/internal/db"
	"github.com/lumenhq/adminapi/internal/domain"
	"github.com/lumenhq/adminapi/internal/listquery"
)

// AuditColumns maps API field names to audit_log columns for the list-query
// predicate builder.
var AuditColumns = map[string]string{
	"id":        "id",
	"traceId":   "trace_id",
	"actorId":   "actor_id",
	"action":    "action",
	"targetId":  "target_id",
	"field":     "field",
	"createdAt": "created_at",
}

const auditSelect = `SELECT id, trace_id, actor_id, actor_session_id, action, target_id, field, old_value, new_value, reason, created_at FROM audit_log`

// auditRepository implements AuditRepository
type auditRepository struct {
	conn *db.Connection
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(conn *db.Connection) AuditRepository {
	return &auditRepository{conn: conn}
}

func scanAuditEntry(row pgx.Row) (domain.AuditEntry, error) {
	var e domain.AuditEntry
	err := row.Scan(&e.ID, &e.TraceID, &e.ActorID, &e.ActorSessionID, &e.Action,
		&e.TargetID, &e.Field, &e.OldValue, &e.NewValue, &e.Reason, &e.CreatedAt)
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("failed to scan audit entry: %w", err)
	}
	return e, nil
}

// List pages through the audit log with the same keyset engine as user
// listings; entries are queryable by actor, target, field and time range.
func (r *auditRepository) List(ctx context.Context, query listquery.ListQuery) (AuditPage, error) {
	builder := newSQLBuilder(AuditColumns)
	conds := []string{"TRUE"}
	for _, expr := range query.Filters {
		conds = append(conds, builder.filterSQL(expr))
	}
	if query.Cursor != nil {
		conds = append(conds, listquery.KeysetAfter(builder.primitives(), query.Sort, query.Cursor.After))
	}

	sql := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %s",
		auditSelect,
		joinConds(conds),
		builder.orderBySQL(query.Sort),
		builder.bind(query.Limit+1),
	)

	rows, err := r.conn.Pool.Query(ctx, sql, builder.args...)
	if err != nil {
		return AuditPage{}, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return AuditPage{}, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return AuditPage{}, fmt.Errorf("failed to iterate audit log: %w", err)
	}

	page := AuditPage{Entries: entries}
	if len(entries) > query.Limit {
		page.Entries = entries[:query.Limit]
		page.HasMore = true
		page.NextCursor = listquery.EncodeCursor(listquery.Payload{
			Sort:  query.Normalized,
			After: auditAfterValues(page.Entries[len(page.Entries)-1], query.Sort),
		})
	}
	if page.Entries == nil {
		page.Entries = []domain.AuditEntry{}
	}
	return page, nil
}

func auditAfterValues(e domain.AuditEntry, sort []listquery.SortField) map[string]any {
	after := make(map[string]any, len(sort))
	for _, key := range sort {
		switch key.Field {
		case "id":
			after[key.Field] = e.ID.String()
		case "traceId":
			after[key.Field] = e.TraceID
		case "actorId":
			after[key.Field] = e.ActorID.String()
		case "action":
			after[key.Field] = string(e.Action)
		case "targetId":
			after[key.Field] = e.TargetID.String()
		case "field":
			after[key.Field] = e.Field
		case "createdAt":
			after[key.Field] = listquery.FormatDatetime(e.CreatedAt)
		default:
			panic(fmt.Sprintf("repository: no after-value mapping for sort field %q", key.Field))
		}
	}
	return after
}
