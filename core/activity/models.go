package activity

import (
	"sort"
	"time"

	"github.com/trezcool/shughuli/core"
)

// Award categories
const (
	AwardWinner           = "winner"
	AwardRunnerUp1        = "runner_up_1"
	AwardRunnerUp2        = "runner_up_2"
	AwardHonorableMention = "honorable_mention"
	AwardCustom           = "custom"
)

// Activity statuses, derived; never stored.
const (
	StatusOngoing   = "ongoing"
	StatusOverdue   = "overdue"
	StatusPending   = "pending"   // has winners, points not yet distributed
	StatusAnnounced = "announced" // points distributed; terminal for payout purposes
)

var (
	AllAwards = []string{AwardWinner, AwardRunnerUp1, AwardRunnerUp2, AwardHonorableMention, AwardCustom}

	// award ranks: 1 is highest; custom awards have no fixed rank.
	awardRanks = map[string]int{
		AwardWinner:           1,
		AwardRunnerUp1:        2,
		AwardRunnerUp2:        3,
		AwardHonorableMention: 4,
	}

	awardLabels = map[string]string{
		AwardWinner:           "Winner",
		AwardRunnerUp1:        "1st Runner-up",
		AwardRunnerUp2:        "2nd Runner-up",
		AwardHonorableMention: "Honorable Mention",
	}

	Awards = []AwardInfo{
		{Name: "Winner", Value: AwardWinner},
		{Name: "1st Runner-up", Value: AwardRunnerUp1},
		{Name: "2nd Runner-up", Value: AwardRunnerUp2},
		{Name: "Honorable Mention", Value: AwardHonorableMention},
		{Name: "Custom", Value: AwardCustom},
	}

	NowFunc = time.Now // mockable
)

// AwardRank returns the fixed rank of an award category, 0 when it has none.
func AwardRank(award string) int {
	return awardRanks[award]
}

// AwardLabel maps an award category to its display name. Custom awards use their
// own name; unknown categories fall back to a generic label instead of failing.
func AwardLabel(award, customName string) string {
	if award == AwardCustom && customName != "" {
		return customName
	}
	if lbl, ok := awardLabels[award]; ok {
		return lbl
	}
	return "Prize"
}

type AwardInfo struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Activity struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	Participants int       `json:"participants"`
	Points       int       `json:"points"` // 0 = no reward configured
	EndDate      time.Time `json:"end_date"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC

	// Distributed mirrors the ledger payout flag; it is never derived locally.
	Distributed bool `json:"distributed"`

	Registrations []Registration `json:"registrations,omitempty"`
}

// Status derives the activity lifecycle state:
// ongoing -> overdue (end date passed, no winners) -> pending (>= 1 winner) -> announced.
func (a Activity) Status() string {
	if a.Distributed {
		return StatusAnnounced
	}
	if len(BuildWinners(a)) > 0 {
		return StatusPending
	}
	if !a.EndDate.IsZero() && NowFunc().After(a.EndDate) {
		return StatusOverdue
	}
	return StatusOngoing
}

type Registration struct {
	ID           string    `json:"id"`
	ActivityID   string    `json:"activity_id"`
	TeamName     string    `json:"team_name,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Members      []string  `json:"members"`
	CreatedAt    time.Time `json:"created_at"` // UTC

	// Results is the full history; only the most-recently-created row is current.
	Results []Result `json:"results,omitempty"`
}

func (r Registration) IsTeam() bool { return len(r.Members) > 1 }

func (r Registration) DisplayName() string {
	if r.TeamName != "" {
		return r.TeamName
	}
	if len(r.Members) > 0 {
		return r.Members[0]
	}
	return r.ID
}

// CurrentResult returns the Result with the latest creation timestamp.
// Timestamp ties keep the later row; ties should not occur in practice.
func (r Registration) CurrentResult() (Result, bool) {
	if len(r.Results) == 0 {
		return Result{}, false
	}
	curr := r.Results[0]
	for _, res := range r.Results[1:] {
		if !res.CreatedAt.Before(curr.CreatedAt) {
			curr = res
		}
	}
	return curr, true
}

// Result is a persisted award record linking a Registration to an award category.
type Result struct {
	ID             string    `json:"id"`
	RegistrationID string    `json:"registration_id"`
	Award          string    `json:"award"`
	AwardName      string    `json:"award_name,omitempty"` // required when Award == AwardCustom
	Detail         string    `json:"detail,omitempty"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// Winner is a derived, display-ready projection of a Registration's current Result.
type Winner struct {
	Rank           int      `json:"rank"`
	Name           string   `json:"name"`
	Prize          string   `json:"prize"`
	Award          string   `json:"award"`
	IsTeam         bool     `json:"is_team"`
	Members        []string `json:"members,omitempty"`
	ResultID       string   `json:"result_id"`
	RegistrationID string   `json:"registration_id"`
}

// RewardAssignment is one desired winner slot submitted by an operator.
// Slots are logically identified by the target registration.
type RewardAssignment struct {
	Award          string `json:"award" validate:"required,award"`
	RegistrationID string `json:"registration_id" validate:"required"`
	Detail         string `json:"detail"`
	AwardName      string `json:"award_name"`
}

// AnnounceActivity contains the desired winner set submitted by an operator.
type AnnounceActivity struct {
	Assignments []RewardAssignment `json:"assignments" validate:"min=1,dive"`
}

// Validate cleans and validates the whole batch; any violation rejects all of it.
func (aa *AnnounceActivity) Validate() error {
	for i := range aa.Assignments {
		asg := &aa.Assignments[i]
		asg.Award = core.CleanString(asg.Award, true /* lower */)
		asg.RegistrationID = core.CleanString(asg.RegistrationID)
		asg.AwardName = core.CleanString(asg.AwardName)
		asg.Detail = core.CleanString(asg.Detail)
	}
	return core.Validate.Struct(aa)
}

// SortWinners orders winners by rank, then name for a stable listing.
func SortWinners(winners []Winner) {
	sort.SliceStable(winners, func(i, j int) bool {
		if winners[i].Rank != winners[j].Rank {
			return winners[i].Rank < winners[j].Rank
		}
		return winners[i].Name < winners[j].Name
	})
}
