package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shughuli/core"
	"github.com/trezcool/shughuli/core/activity"
)

type ActivityRepository struct {
	db *activityTable
}

var _ activity.Repository = (*ActivityRepository)(nil) // interface compliance check

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db.activity}
}

// CreateActivity seeds a new activity. Test helper; the production store
// receives activities from the enrollment pipeline.
func (repo *ActivityRepository) CreateActivity(act activity.Activity) (activity.Activity, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if act.ID == "" {
		act.ID = uuid.New().String()
	}
	if act.CreatedAt.IsZero() {
		act.CreatedAt = activity.NowFunc().UTC()
	}
	act.UpdatedAt = act.CreatedAt
	act.Registrations = nil
	repo.db.activities[act.ID] = &act
	return act, nil
}

// CreateRegistration seeds a registration under an existing activity. Test helper.
func (repo *ActivityRepository) CreateRegistration(reg activity.Registration) (activity.Registration, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.activities[reg.ActivityID]; !ok {
		return activity.Registration{}, activity.ErrNotFound
	}
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = activity.NowFunc().UTC()
	}
	reg.Results = nil
	repo.db.registrations[reg.ID] = &reg
	return reg, nil
}

func (repo *ActivityRepository) QueryActivities(ctx context.Context, ordering ...core.DBOrdering) ([]activity.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	acts := make([]activity.Activity, 0, len(repo.db.activities))
	for _, act := range repo.db.activities {
		acts = append(acts, repo.hydrate(*act))
	}

	ord := core.DBOrdering{Field: "created_at", Ascending: true}
	if len(ordering) > 0 {
		ord = ordering[0]
	}
	sort.SliceStable(acts, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "title":
			less = acts[i].Title < acts[j].Title
		case "end_date":
			less = acts[i].EndDate.Before(acts[j].EndDate)
		default:
			less = acts[i].CreatedAt.Before(acts[j].CreatedAt)
		}
		if !ord.Ascending {
			return !less
		}
		return less
	})
	return acts, nil
}

func (repo *ActivityRepository) GetActivity(ctx context.Context, id string) (activity.Activity, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if act, ok := repo.db.activities[id]; ok {
		return repo.hydrate(*act), nil
	}
	return activity.Activity{}, activity.ErrNotFound
}

func (repo *ActivityRepository) QueryRegistrations(ctx context.Context, activityID string) ([]activity.Registration, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if _, ok := repo.db.activities[activityID]; !ok {
		return nil, activity.ErrNotFound
	}
	return repo.queryRegistrations(activityID), nil
}

func (repo *ActivityRepository) CreateResult(ctx context.Context, res activity.Result) (activity.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.registrations[res.RegistrationID]; !ok {
		return activity.Result{}, activity.ErrNotFound
	}
	res.ID = uuid.New().String()
	res.CreatedAt = activity.NowFunc().UTC()
	repo.db.results[res.ID] = &res
	return res, nil
}

func (repo *ActivityRepository) UpdateResult(ctx context.Context, res activity.Result) (activity.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	curr, ok := repo.db.results[res.ID]
	if !ok {
		return activity.Result{}, activity.ErrResultNotFound
	}
	curr.Award = res.Award
	curr.AwardName = res.AwardName
	curr.Detail = res.Detail
	return *curr, nil
}

func (repo *ActivityRepository) DeleteResult(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.results[id]; !ok {
		return activity.ErrResultNotFound
	}
	delete(repo.db.results, id)
	return nil
}

// hydrate attaches registrations (and their result history) to an activity copy.
func (repo *ActivityRepository) hydrate(act activity.Activity) activity.Activity {
	act.Registrations = repo.queryRegistrations(act.ID)
	act.Participants = len(act.Registrations)
	return act
}

func (repo *ActivityRepository) queryRegistrations(activityID string) []activity.Registration {
	regs := make([]activity.Registration, 0)
	for _, reg := range repo.db.registrations {
		if reg.ActivityID != activityID {
			continue
		}
		r := *reg
		r.Results = nil
		for _, res := range repo.db.results {
			if res.RegistrationID == r.ID {
				r.Results = append(r.Results, *res)
			}
		}
		sort.Slice(r.Results, func(i, j int) bool { return r.Results[i].CreatedAt.Before(r.Results[j].CreatedAt) })
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.Before(regs[j].CreatedAt) })
	return regs
}
