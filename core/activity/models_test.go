package activity

import (
	"testing"
	"time"
)

func TestActivity_Status(t *testing.T) {
	now := time.Now().UTC()
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	withWinner := []Registration{
		{ID: "r1", Members: []string{"Ada"}, Results: []Result{{ID: "res1", Award: AwardWinner, CreatedAt: now}}},
	}

	tests := []struct {
		name string
		act  Activity
		want string
	}{
		{name: "ongoing before end date", act: Activity{EndDate: now.Add(time.Hour)}, want: StatusOngoing},
		{name: "ongoing when end date unset", act: Activity{}, want: StatusOngoing},
		{name: "overdue after end date without winners", act: Activity{EndDate: now.Add(-time.Hour)}, want: StatusOverdue},
		{name: "pending once winners exist", act: Activity{EndDate: now.Add(-time.Hour), Registrations: withWinner}, want: StatusPending},
		{name: "announced once distributed", act: Activity{Distributed: true, Registrations: withWinner}, want: StatusAnnounced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.act.Status(); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAnnounceActivity_Validate(t *testing.T) {
	tests := []struct {
		name    string
		data    AnnounceActivity
		wantErr bool
	}{
		{name: "empty set", data: AnnounceActivity{}, wantErr: true},
		{
			name: "unknown award",
			data: AnnounceActivity{Assignments: []RewardAssignment{
				{Award: "galactic_champion", RegistrationID: "r1"},
			}},
			wantErr: true,
		},
		{
			name: "missing registration",
			data: AnnounceActivity{Assignments: []RewardAssignment{
				{Award: AwardWinner},
			}},
			wantErr: true,
		},
		{
			name: "custom award without a name",
			data: AnnounceActivity{Assignments: []RewardAssignment{
				{Award: AwardCustom, RegistrationID: "r1"},
			}},
			wantErr: true,
		},
		{
			name: "custom award with a name",
			data: AnnounceActivity{Assignments: []RewardAssignment{
				{Award: AwardCustom, RegistrationID: "r1", AwardName: "Best Costume"},
			}},
		},
		{
			name: "award is cleaned before validation",
			data: AnnounceActivity{Assignments: []RewardAssignment{
				{Award: "  Winner ", RegistrationID: " r1 "},
			}},
		},
		{
			name: "valid batch",
			data: AnnounceActivity{Assignments: []RewardAssignment{
				{Award: AwardWinner, RegistrationID: "r1"},
				{Award: AwardRunnerUp1, RegistrationID: "r2", Detail: "45 points"},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.data.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistration_CurrentResult(t *testing.T) {
	now := time.Now().UTC()

	reg := Registration{Results: []Result{
		{ID: "old", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "new", CreatedAt: now},
		{ID: "mid", CreatedAt: now.Add(-time.Hour)},
	}}
	res, ok := reg.CurrentResult()
	if !ok {
		t.Fatal("CurrentResult() ok = false, want true")
	}
	if res.ID != "new" {
		t.Errorf("CurrentResult().ID = %s, want new", res.ID)
	}

	if _, ok := (Registration{}).CurrentResult(); ok {
		t.Error("CurrentResult() ok = true for empty history, want false")
	}
}
