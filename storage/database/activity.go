package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shughuli/core"
	"github.com/trezcool/shughuli/core/activity"
)

type (
	activityRow struct {
		ID          string      `db:"id"`
		Title       string      `db:"title"`
		Description null.String `db:"description"`
		Category    null.String `db:"category"`
		Points      int         `db:"points"`
		EndDate     null.Time   `db:"end_date"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   time.Time   `db:"updated_at"`
	}

	registrationRow struct {
		ID           string         `db:"id"`
		ActivityID   string         `db:"activity_id"`
		TeamName     null.String    `db:"team_name"`
		ContactEmail null.String    `db:"contact_email"`
		Members      pq.StringArray `db:"members"`
		CreatedAt    time.Time      `db:"created_at"`
	}

	resultRow struct {
		ID             string      `db:"id"`
		RegistrationID string      `db:"registration_id"`
		Award          string      `db:"award"`
		AwardName      null.String `db:"award_name"`
		Detail         null.String `db:"detail"`
		CreatedAt      time.Time   `db:"created_at"`
	}
)

func (r activityRow) unpack() activity.Activity {
	return activity.Activity{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		Category:    r.Category.String,
		Points:      r.Points,
		EndDate:     r.EndDate.Time,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r registrationRow) unpack() activity.Registration {
	return activity.Registration{
		ID:           r.ID,
		ActivityID:   r.ActivityID,
		TeamName:     r.TeamName.String,
		ContactEmail: r.ContactEmail.String,
		Members:      r.Members,
		CreatedAt:    r.CreatedAt,
	}
}

func (r resultRow) unpack() activity.Result {
	return activity.Result{
		ID:             r.ID,
		RegistrationID: r.RegistrationID,
		Award:          r.Award,
		AwardName:      r.AwardName.String,
		Detail:         r.Detail.String,
		CreatedAt:      r.CreatedAt,
	}
}

func packResult(res activity.Result) resultRow {
	return resultRow{
		ID:             res.ID,
		RegistrationID: res.RegistrationID,
		Award:          res.Award,
		AwardName:      null.NewString(res.AwardName, res.AwardName != ""),
		Detail:         null.NewString(res.Detail, res.Detail != ""),
		CreatedAt:      res.CreatedAt,
	}
}

type activityRepository struct {
	db *sqlx.DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *sqlx.DB) *activityRepository {
	return &activityRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to the given sentinel
func (repo activityRepository) trapNoRowsErr(err, sentinel error, msg string) error {
	if err == sql.ErrNoRows {
		return sentinel
	}
	return trapConnErr(err, msg)
}

// trapConnErr reports a lost database connection as a shutdown error so the
// server stops gracefully instead of serving 500s until someone notices.
func trapConnErr(err error, msg string) error {
	if err == driver.ErrBadConn {
		return errors.Wrap(core.NewShutdownError("database connection lost"), msg)
	}
	return errors.Wrap(err, msg)
}

func (repo activityRepository) QueryActivities(ctx context.Context, ordering ...core.DBOrdering) ([]activity.Activity, error) {
	orderBy := "created_at ASC"
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			switch ord.Field {
			case "title", "end_date", "created_at", "points": // whitelist sortable columns
				orderList = append(orderList, ord.String())
			}
		}
		if len(orderList) > 0 {
			orderBy = strings.Join(orderList, ", ")
		}
	}

	var rows []activityRow
	q := `SELECT * FROM activity ORDER BY ` + orderBy
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, trapConnErr(err, "querying activities")
	}

	acts := make([]activity.Activity, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		acts = append(acts, row.unpack())
		ids = append(ids, row.ID)
	}
	if err := repo.attachRegistrations(ctx, acts, ids); err != nil {
		return nil, err
	}
	return acts, nil
}

func (repo activityRepository) GetActivity(ctx context.Context, id string) (activity.Activity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return activity.Activity{}, activity.ErrNotFound
	}

	var row activityRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM activity WHERE id = $1`, id); err != nil {
		return activity.Activity{}, repo.trapNoRowsErr(err, activity.ErrNotFound, "finding activity by ID")
	}

	acts := []activity.Activity{row.unpack()}
	if err := repo.attachRegistrations(ctx, acts, []string{row.ID}); err != nil {
		return activity.Activity{}, err
	}
	return acts[0], nil
}

func (repo activityRepository) QueryRegistrations(ctx context.Context, activityID string) ([]activity.Registration, error) {
	act, err := repo.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return act.Registrations, nil
}

func (repo activityRepository) CreateResult(ctx context.Context, res activity.Result) (activity.Result, error) {
	res.ID = uuid.New().String()
	res.CreatedAt = activity.NowFunc().UTC()

	q := `INSERT INTO result (id, registration_id, award, award_name, detail, created_at)
	      VALUES (:id, :registration_id, :award, :award_name, :detail, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, packResult(res)); err != nil {
		return activity.Result{}, trapConnErr(err, "inserting result")
	}
	return res, nil
}

func (repo activityRepository) UpdateResult(ctx context.Context, res activity.Result) (activity.Result, error) {
	q := `UPDATE result SET award = :award, award_name = :award_name, detail = :detail WHERE id = :id`
	r, err := repo.db.NamedExecContext(ctx, q, packResult(res))
	if err != nil {
		return activity.Result{}, trapConnErr(err, "updating result")
	}
	if cnt, err := r.RowsAffected(); err == nil && cnt == 0 {
		return activity.Result{}, activity.ErrResultNotFound
	}
	return res, nil
}

func (repo activityRepository) DeleteResult(ctx context.Context, id string) error {
	r, err := repo.db.ExecContext(ctx, `DELETE FROM result WHERE id = $1`, id)
	if err != nil {
		return trapConnErr(err, "deleting result")
	}
	if cnt, err := r.RowsAffected(); err == nil && cnt == 0 {
		return activity.ErrResultNotFound
	}
	return nil
}

// attachRegistrations loads the registrations (and their result history) of the
// given activities in two batched queries and hangs them off each activity.
func (repo activityRepository) attachRegistrations(ctx context.Context, acts []activity.Activity, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	q, args, err := sqlx.In(`SELECT * FROM registration WHERE activity_id IN (?) ORDER BY created_at ASC`, ids)
	if err != nil {
		return errors.Wrap(err, "building registrations query")
	}
	var regRows []registrationRow
	if err := repo.db.SelectContext(ctx, &regRows, repo.db.Rebind(q), args...); err != nil {
		return trapConnErr(err, "querying registrations")
	}
	if len(regRows) == 0 {
		return nil
	}

	regIDs := make([]string, 0, len(regRows))
	for _, row := range regRows {
		regIDs = append(regIDs, row.ID)
	}
	q, args, err = sqlx.In(`SELECT * FROM result WHERE registration_id IN (?) ORDER BY created_at ASC`, regIDs)
	if err != nil {
		return errors.Wrap(err, "building results query")
	}
	var resRows []resultRow
	if err := repo.db.SelectContext(ctx, &resRows, repo.db.Rebind(q), args...); err != nil {
		return trapConnErr(err, "querying results")
	}

	resultsByReg := make(map[string][]activity.Result, len(regRows))
	for _, row := range resRows {
		resultsByReg[row.RegistrationID] = append(resultsByReg[row.RegistrationID], row.unpack())
	}
	regsByAct := make(map[string][]activity.Registration, len(acts))
	for _, row := range regRows {
		reg := row.unpack()
		reg.Results = resultsByReg[reg.ID]
		regsByAct[reg.ActivityID] = append(regsByAct[reg.ActivityID], reg)
	}
	for i := range acts {
		acts[i].Registrations = regsByAct[acts[i].ID]
		acts[i].Participants = len(acts[i].Registrations)
	}
	return nil
}
