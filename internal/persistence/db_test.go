package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/valleysim/internal/agents"
	"github.com/talgya/valleysim/internal/census"
	"github.com/talgya/valleysim/internal/engine"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func testSnapshot(step int) census.Snapshot {
	return census.Snapshot{
		Step: step,
		Date: "02/1997",
		Steps: []census.StepRecord{
			{Step: step, Date: "02/1997", RegionID: 1, Births: 2, Deaths: 1, Population: 3, Households: 1, Away: 1},
		},
		Neighborhoods: []census.NeighborhoodRecord{
			{Step: step, NeighborhoodID: 1, RegionID: 1, X: 500, Y: 0, Population: 3, Households: 1,
				AgVeg: 10, NonAgVeg: 6, PrivBldg: 2, PubBldg: 1, Other: 1, TotalArea: 20,
				PercAgVeg: 50, PercVeg: 80, PercBldg: 15},
		},
		Persons: []census.PersonRecord{
			{Step: step, PersonID: 1, HouseholdID: 1, NeighborhoodID: 1, RegionID: 1, Sex: "male", Age: 360,
				SpouseID: ptr(agents.ID(2))},
			{Step: step, PersonID: 2, HouseholdID: 1, NeighborhoodID: 1, RegionID: 1, Sex: "female", Age: 340,
				SpouseID: ptr(agents.ID(1)), DesiredChildren: ptr(3), FirstBirthTiming: 14},
			{Step: step, PersonID: 3, HouseholdID: 1, NeighborhoodID: 1, RegionID: 1, Sex: "female", Age: 0,
				MotherID: ptr(agents.ID(2)), FatherID: ptr(agents.ID(1))},
		},
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	run, err := db.BeginRun(42, "seed: 42\n")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	last, err := db.GetMeta("last_run")
	require.NoError(t, err)
	assert.Equal(t, run.ID, last)

	got, err := db.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Seed)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, "seed: 42\n", got.Config)
	assert.Nil(t, got.FinishedAt)

	require.NoError(t, db.FinishRun(run.ID, StatusFinished, 120))
	got, err = db.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, got.Status)
	assert.Equal(t, 120, got.Steps)
	assert.NotNil(t, got.FinishedAt)
}

func TestGetRun_Missing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetRun("nope")
	assert.Error(t, err)
}

func TestSaveSnapshot(t *testing.T) {
	db := openTestDB(t)
	run, err := db.BeginRun(1, "")
	require.NoError(t, err)

	snap := testSnapshot(1)
	require.NoError(t, db.SaveSnapshot(run.ID, snap))

	steps, err := db.StepRecords(run.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Steps, steps)

	nbhs, err := db.NeighborhoodRecords(run.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, snap.Neighborhoods, nbhs)

	persons, err := db.PersonRecords(run.ID, 1)
	require.NoError(t, err)
	require.Len(t, persons, 3)
	assert.Equal(t, snap.Persons, persons)
	assert.Nil(t, persons[0].MotherID)
	assert.Nil(t, persons[0].DesiredChildren)

	got, err := db.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Steps)
}

func TestSaveSnapshot_DuplicateStepRollsBack(t *testing.T) {
	db := openTestDB(t)
	run, err := db.BeginRun(1, "")
	require.NoError(t, err)
	require.NoError(t, db.SaveSnapshot(run.ID, testSnapshot(1)))

	// The step row is new but the neighborhood row collides, so nothing of
	// step 2 may remain.
	snap := testSnapshot(2)
	snap.Neighborhoods[0].Step = 1
	require.Error(t, db.SaveSnapshot(run.ID, snap))

	steps, err := db.StepRecords(run.ID)
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestRecorder(t *testing.T) {
	db := openTestDB(t)
	run, err := db.BeginRun(7, "")
	require.NoError(t, err)

	var rec engine.Recorder = db.Recorder(run)
	require.NoError(t, rec.Record(testSnapshot(1)))
	require.NoError(t, rec.Record(testSnapshot(2)))

	er, ok := rec.(engine.EventRecorder)
	require.True(t, ok)
	require.NoError(t, er.RecordEvents([]engine.Event{
		{Step: 1, Date: "01/1997", Description: "first", Category: "land"},
		{Step: 12, Date: "12/1997", Description: "second", Category: "summary"},
	}))
	require.NoError(t, er.RecordEvents(nil))

	events, err := db.RecentEvents(run.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "second", events[0].Description)
	assert.Equal(t, "land", events[1].Category)

	require.NoError(t, db.Recorder(run).Finish(StatusFinished, 2))
	got, err := db.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, got.Status)
	assert.Equal(t, 2, got.Steps)
}
