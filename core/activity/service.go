package activity

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shughuli/core"
)

var (
	// errors
	ErrNotFound           = errors.New("activity not found")
	ErrResultNotFound     = errors.New("result not found")
	ErrNoPointsConfigured = errors.New("activity has no reward points configured")
)

// Distribution outcome statuses
const (
	OutcomeCredited           = "credited"
	OutcomeAlreadyDistributed = "already_distributed"
)

type (
	// Repository owns persisted activities, registrations and award results.
	Repository interface {
		QueryActivities(ctx context.Context, ordering ...core.DBOrdering) ([]Activity, error)
		GetActivity(ctx context.Context, id string) (Activity, error)
		QueryRegistrations(ctx context.Context, activityID string) ([]Registration, error)
		CreateResult(ctx context.Context, res Result) (Result, error)
		UpdateResult(ctx context.Context, res Result) (Result, error)
		DeleteResult(ctx context.Context, id string) error
	}

	// Ledger tracks the per-activity payout flag and performs the actual point
	// crediting. It is the sole guard against double payouts; concurrent
	// distribute calls must rely on its idempotence check.
	Ledger interface {
		Distributed(ctx context.Context, activityID string) (bool, error)
		Distribute(ctx context.Context, activityID string) error
	}

	// DistributionOutcome reports the result of a one-shot points distribution.
	DistributionOutcome struct {
		ActivityID string `json:"activity_id"`
		Status     string `json:"status"`
		Points     int    `json:"points"`
		Winners    int    `json:"winners"`
	}

	Service struct {
		repo    Repository
		ledger  Ledger
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, ledger Ledger, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		ledger:  ledger,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// CanAnnounce reports whether winners may be announced for the activity.
// Activities without configured reward points cannot be announced.
func CanAnnounce(act Activity) bool { return act.Points > 0 }

// ApplyError reports a reconciliation batch that failed part-way.
// Completed operations are not rolled back; the store may hold a partial edit
// until the operator retries.
type ApplyError struct {
	Completed int
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("winner changes partially applied (%d operation(s) completed): %v", e.Completed, e.Err)
}

func (svc *Service) QueryAll(ctx context.Context, ordering ...core.DBOrdering) ([]Activity, error) {
	acts, err := svc.repo.QueryActivities(ctx, ordering...)
	if err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	for i := range acts {
		done, err := svc.ledger.Distributed(ctx, acts[i].ID)
		if err != nil {
			return nil, errors.Wrap(err, "checking distribution flag")
		}
		acts[i].Distributed = done
	}
	return acts, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Activity, error) {
	act, err := svc.repo.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	done, err := svc.ledger.Distributed(ctx, act.ID)
	if err != nil {
		return Activity{}, errors.Wrap(err, "checking distribution flag")
	}
	act.Distributed = done
	return act, nil
}

func (svc *Service) QueryRegistrations(ctx context.Context, activityID string) ([]Registration, error) {
	return svc.repo.QueryRegistrations(ctx, activityID)
}

// Winners returns the current winner set of an activity, ordered by rank.
func (svc *Service) Winners(ctx context.Context, activityID string) ([]Winner, error) {
	act, err := svc.repo.GetActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	winners := BuildWinners(act)
	SortWinners(winners)
	return winners, nil
}

// Announce reconciles the persisted winner set with the desired assignments:
// it computes the minimal create/update/delete set and applies it, then returns
// the refreshed activity. Assignments must be validated by the caller; the
// announce gate (non-zero points) is enforced here before any store call.
// Registrations absent from the desired set lose their Result.
func (svc *Service) Announce(ctx context.Context, activityID string, desired []RewardAssignment) (Activity, error) {
	act, err := svc.Get(ctx, activityID)
	if err != nil {
		return Activity{}, err
	}
	if !CanAnnounce(act) {
		return Activity{}, ErrNoPointsConfigured
	}
	if err := checkAssignments(act, desired); err != nil {
		return Activity{}, err
	}

	plan := BuildPlan(BuildWinners(act), desired)
	if !plan.IsEmpty() {
		if err := svc.apply(ctx, plan); err != nil {
			return Activity{}, err
		}
	}
	return svc.Get(ctx, activityID) // full refresh after mutation
}

// checkAssignments rejects assignments targeting a registration of another
// activity; the store accepts any existing registration ID, so without this
// check an announce on one activity could pollute another's winner set.
func checkAssignments(act Activity, desired []RewardAssignment) error {
	regs := make(map[string]struct{}, len(act.Registrations))
	for _, reg := range act.Registrations {
		regs[reg.ID] = struct{}{}
	}
	for _, asg := range desired {
		if _, ok := regs[asg.RegistrationID]; !ok {
			return core.NewValidationError(nil, core.FieldError{
				Field: "registration_id",
				Error: fmt.Sprintf("registration %s is not registered for this activity", asg.RegistrationID),
			})
		}
	}
	return nil
}

// apply executes a reconciliation plan in two phases: creates and updates run
// concurrently first, deletes run only once those all landed. A registration
// moving between reward slots in one edit therefore never transiently loses
// its only current Result.
func (svc *Service) apply(ctx context.Context, plan Plan) error {
	phase1 := make([]func() error, 0, len(plan.Creates)+len(plan.Updates))
	for _, asg := range plan.Creates {
		asg := asg
		phase1 = append(phase1, func() error {
			_, err := svc.repo.CreateResult(ctx, Result{
				RegistrationID: asg.RegistrationID,
				Award:          asg.Award,
				AwardName:      asg.AwardName,
				Detail:         asg.Detail,
			})
			return errors.Wrap(err, "creating result")
		})
	}
	for _, upd := range plan.Updates {
		upd := upd
		phase1 = append(phase1, func() error {
			_, err := svc.repo.UpdateResult(ctx, Result{
				ID:             upd.ResultID,
				RegistrationID: upd.Assignment.RegistrationID,
				Award:          upd.Assignment.Award,
				AwardName:      upd.Assignment.AwardName,
				Detail:         upd.Assignment.Detail,
			})
			return errors.Wrap(err, "updating result")
		})
	}

	completed, err := runOps(phase1)
	if err != nil {
		return &ApplyError{Completed: completed, Err: err}
	}

	phase2 := make([]func() error, 0, len(plan.Deletes))
	for _, id := range plan.Deletes {
		id := id
		phase2 = append(phase2, func() error {
			return errors.Wrap(svc.repo.DeleteResult(ctx, id), "deleting result")
		})
	}

	done, err := runOps(phase2)
	if err != nil {
		return &ApplyError{Completed: completed + done, Err: err}
	}
	return nil
}

// runOps executes ops concurrently and awaits them as a unit, returning the
// number of successful ops and the first error encountered.
func runOps(ops []func() error) (int, error) {
	if len(ops) == 0 {
		return 0, nil
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		firstErr  error
	)
	wg.Add(len(ops))
	for _, op := range ops {
		op := op
		go func() {
			defer wg.Done()
			err := op()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			completed++
		}()
	}
	wg.Wait()
	return completed, firstErr
}

// Distribute credits reward points to the winners of an activity, at most once.
// The ledger flag is checked first: an already-distributed activity resolves to
// an informational outcome without any crediting call. On success the winners
// are notified by email (best-effort) and the activity status advances to
// announced via the persisted flag.
func (svc *Service) Distribute(ctx context.Context, activityID string) (DistributionOutcome, error) {
	act, err := svc.repo.GetActivity(ctx, activityID)
	if err != nil {
		return DistributionOutcome{}, err
	}

	done, err := svc.ledger.Distributed(ctx, act.ID)
	if err != nil {
		return DistributionOutcome{}, errors.Wrap(err, "checking distribution flag")
	}
	winners := BuildWinners(act)
	if done {
		return DistributionOutcome{
			ActivityID: act.ID,
			Status:     OutcomeAlreadyDistributed,
			Points:     act.Points,
			Winners:    len(winners),
		}, nil
	}

	if err := svc.ledger.Distribute(ctx, act.ID); err != nil {
		return DistributionOutcome{}, errors.Wrap(err, "distributing points")
	}

	svc.notifyWinners(act, winners)

	return DistributionOutcome{
		ActivityID: act.ID,
		Status:     OutcomeCredited,
		Points:     act.Points,
		Winners:    len(winners),
	}, nil
}

func (svc *Service) notifyWinners(act Activity, winners []Winner) {
	contacts := make(map[string]string, len(act.Registrations)) // registrationID -> email
	for _, reg := range act.Registrations {
		if reg.ContactEmail != "" {
			contacts[reg.ID] = reg.ContactEmail
		}
	}

	msgs := make([]*core.EmailMessage, 0, len(winners))
	for _, w := range winners {
		email, ok := contacts[w.RegistrationID]
		if !ok {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: w.Name, Address: email}},
			Subject:      fmt.Sprintf("Congratulations! Results for %s are out", act.Title),
			TemplateName: "winner-announced",
			TemplateData: struct {
				Name     string
				Activity string
				Prize    string
				Points   int
				Date     time.Time
			}{w.Name, act.Title, w.Prize, act.Points, NowFunc().UTC()},
		})
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
}
