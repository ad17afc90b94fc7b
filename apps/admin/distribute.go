package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shughuli/core/activity"
)

func (cli *commandLine) distribute(activityID string) error {
	outcome, err := cli.actSvc.Distribute(context.Background(), activityID)
	if err != nil {
		return err
	}

	switch outcome.Status {
	case activity.OutcomeAlreadyDistributed:
		fmt.Printf("activity %s: points already distributed, nothing to do\n", outcome.ActivityID)
	default:
		fmt.Printf("activity %s: credited %d points to %d winner(s)\n", outcome.ActivityID, outcome.Points, outcome.Winners)
	}
	return nil
}
