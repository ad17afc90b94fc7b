package activity

// BuildWinners flattens each registration's current Result into a display-ready
// Winner list. Registrations without any Result are omitted. Ranks come from the
// award category when it has a fixed one, else from the running insertion count.
// The list is stable for the lifetime of one fetch; no side effects.
func BuildWinners(act Activity) []Winner {
	winners := make([]Winner, 0, len(act.Registrations))
	for _, reg := range act.Registrations {
		res, ok := reg.CurrentResult()
		if !ok {
			continue
		}
		rank := AwardRank(res.Award)
		if rank == 0 {
			rank = len(winners) + 1
		}
		winners = append(winners, Winner{
			Rank:           rank,
			Name:           reg.DisplayName(),
			Prize:          AwardLabel(res.Award, res.AwardName),
			Award:          res.Award,
			IsTeam:         reg.IsTeam(),
			Members:        reg.Members,
			ResultID:       res.ID,
			RegistrationID: reg.ID,
		})
	}
	return winners
}
