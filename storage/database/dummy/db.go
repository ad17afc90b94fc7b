package dummydb

import (
	"sync"

	"github.com/trezcool/shughuli/core/activity"
)

type (
	DB struct {
		activity *activityTable
	}

	activityTable struct {
		sync.RWMutex
		activities    map[string]*activity.Activity
		registrations map[string]*activity.Registration
		results       map[string]*activity.Result
	}
)

func Open() (*DB, error) {
	db := &DB{
		activity: &activityTable{
			activities:    make(map[string]*activity.Activity),
			registrations: make(map[string]*activity.Registration),
			results:       make(map[string]*activity.Result),
		},
	}
	return db, nil
}
