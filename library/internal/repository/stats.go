package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
)

// RecordEvent stores a borrowing event once; redelivered events are ignored.
func (r *repository) RecordEvent(ctx context.Context, event kafka.BorrowingEvent) error {
	ids := make(map[string]uuid.UUID, 3)
	for field, raw := range map[string]string{
		"borrowingId": event.BorrowingID,
		"userId":      event.UserID,
		"bookId":      event.BookID,
	} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return errs.NewValidationError(field, "must be a uuid")
		}
		ids[field] = id
	}

	const q = `
insert into borrowing_events (event_type, borrowing_id, user_id, book_id, occurred_at)
values (@event_type, @borrowing_id, @user_id, @book_id, @occurred_at)
on conflict (borrowing_id, event_type) do nothing`
	args := pgx.NamedArgs{
		"event_type":   string(event.Type),
		"borrowing_id": ids["borrowingId"],
		"user_id":      ids["userId"],
		"book_id":      ids["bookId"],
		"occurred_at":  event.OccurredAt,
	}
	_, err := r.conn(ctx).Exec(ctx, q, args)
	return errors.Wrap(err, "insert borrowing event")
}

func (r *repository) GetStats(ctx context.Context) (model.StatsInfo, error) {
	const q = `
	with per_borrowing as (
	    select user_id, borrowing_id, max(occurred_at) as last_at,
	           bool_or(event_type = 'BORROWED') as borrowed,
	           bool_or(event_type = 'RETURNED') as returned,
	           bool_or(event_type = 'DELETED')  as deleted
	    from borrowing_events
	    group by user_id, borrowing_id
	)
	select user_id, max(last_at) as last_updated,
	       count(*) filter (where borrowed)::int as borrowed,
	       count(*) filter (where returned)::int as returned,
	       count(*) filter (where borrowed and not returned and not deleted)::int as outstanding,
	       count(*) filter (where deleted)::int as deleted
	from per_borrowing
	group by user_id
	order by user_id
`
	rows, err := r.conn(ctx).Query(ctx, q)
	if err != nil {
		return model.StatsInfo{}, err
	}
	defer rows.Close()

	stats, err := collectAll[model.Stats](rows)
	if err != nil {
		return model.StatsInfo{}, err
	}
	return model.StatsInfo{Data: stats}, nil
}
