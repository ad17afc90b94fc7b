package activity

type (
	// Plan is the minimal operation set moving the persisted winner set to the
	// desired one, keyed by registration ID.
	Plan struct {
		Creates []RewardAssignment
		Updates []ResultUpdate
		Deletes []string // result IDs
	}

	// ResultUpdate reuses an existing Result row for a registration that stays
	// a winner, overwriting its award category, name and detail.
	ResultUpdate struct {
		ResultID   string
		Assignment RewardAssignment
	}
)

func (p Plan) IsEmpty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// Ops returns the total number of operations in the plan.
func (p Plan) Ops() int {
	return len(p.Creates) + len(p.Updates) + len(p.Deletes)
}

// BuildPlan diffs existing winners against the desired assignments:
// present in both -> update; desired only -> create; existing only -> delete.
// A first-time announcement (no existing winners) short-circuits to pure creates.
// Duplicate assignments for one registration collapse to the last one submitted.
func BuildPlan(existing []Winner, desired []RewardAssignment) Plan {
	// collapse duplicates, keeping submission order of first occurrence
	ordered := make([]RewardAssignment, 0, len(desired))
	index := make(map[string]int, len(desired))
	for _, asg := range desired {
		if i, ok := index[asg.RegistrationID]; ok {
			ordered[i] = asg
			continue
		}
		index[asg.RegistrationID] = len(ordered)
		ordered = append(ordered, asg)
	}

	if len(existing) == 0 {
		return Plan{Creates: ordered}
	}

	current := make(map[string]Winner, len(existing))
	for _, w := range existing {
		current[w.RegistrationID] = w
	}

	var plan Plan
	for _, asg := range ordered {
		if w, ok := current[asg.RegistrationID]; ok {
			plan.Updates = append(plan.Updates, ResultUpdate{ResultID: w.ResultID, Assignment: asg})
		} else {
			plan.Creates = append(plan.Creates, asg)
		}
	}
	for _, w := range existing {
		if _, ok := index[w.RegistrationID]; !ok {
			plan.Deletes = append(plan.Deletes, w.ResultID)
		}
	}
	return plan
}
