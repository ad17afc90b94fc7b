package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/shughuli/core/activity"
	dummydb "github.com/trezcool/shughuli/storage/database/dummy"
)

// OpenDB sets up a fresh in-memory store and its activity repository.
func OpenDB(t *testing.T) (*dummydb.DB, *dummydb.ActivityRepository) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db, dummydb.NewActivityRepository(db)
}

func CreateActivity(
	t *testing.T,
	repo *dummydb.ActivityRepository,
	title string,
	points int,
	endDate time.Time,
) activity.Activity {
	act, err := repo.CreateActivity(activity.Activity{
		Title:   title,
		Points:  points,
		EndDate: endDate,
	})
	if err != nil {
		t.Fatalf("CreateActivity() failed: %v", err)
	}
	return act
}

func CreateRegistration(
	t *testing.T,
	repo *dummydb.ActivityRepository,
	activityID, teamName, email string,
	members ...string,
) activity.Registration {
	reg, err := repo.CreateRegistration(activity.Registration{
		ActivityID:   activityID,
		TeamName:     teamName,
		ContactEmail: email,
		Members:      members,
	})
	if err != nil {
		t.Fatalf("CreateRegistration() failed: %v", err)
	}
	return reg
}

// AssertEqualJSON compares got and want by their JSON forms and reports a
// unified diff on mismatch.
func AssertEqualJSON(t *testing.T, got, want interface{}) {
	t.Helper()

	gotJS, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		t.Fatalf("AssertEqualJSON() failed: %v", err)
	}
	wantJS, err := json.MarshalIndent(want, "", "  ")
	if err != nil {
		t.Fatalf("AssertEqualJSON() failed: %v", err)
	}
	if string(gotJS) == string(wantJS) {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(wantJS)),
		B:        difflib.SplitLines(string(gotJS)),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		t.Fatalf("AssertEqualJSON() failed: %v", err)
	}
	t.Errorf("mismatch (-want +got):\n%s", diff)
}
