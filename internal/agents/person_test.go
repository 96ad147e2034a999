package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/valleysim/internal/entropy"
)

func newCouple(t *testing.T, w *World) (man, woman *Person, home *Household) {
	t.Helper()
	home, err := w.NewHousehold()
	require.NoError(t, err)
	man = addPerson(t, w, home, SexMale, 28*12)
	woman = addPerson(t, w, home, SexFemale, 25*12)
	return man, woman, home
}

func TestPerson_Marry(t *testing.T) {
	hz := &stubHazards{firstBirth: 6, interval: 18, desired: 3}
	w := newTestWorld(t, hz, defaultRules())
	man, woman, _ := newCouple(t, w)

	require.NoError(t, man.Marry(woman, 10))

	assert.Equal(t, woman.ID(), man.SpouseID())
	assert.Equal(t, man.ID(), woman.SpouseID())
	assert.Same(t, woman, man.Spouse())
	require.NotNil(t, man.MarriageTime)
	require.NotNil(t, woman.MarriageTime)
	assert.Equal(t, 10.0, *man.MarriageTime)
	assert.Equal(t, 10.0, *woman.MarriageTime)

	assert.Equal(t, 6.0, woman.FirstBirthTiming)
	assert.Equal(t, 18.0, woman.BirthInterval)
	require.NotNil(t, woman.DesiredChildren)
	assert.Equal(t, 3, *woman.DesiredChildren)
	assert.Nil(t, man.DesiredChildren)
}

func TestPerson_MarryKeepsDesiredChildren(t *testing.T) {
	w := newTestWorld(t, &stubHazards{desired: 5}, defaultRules())
	man, woman, _ := newCouple(t, w)
	two := 2
	woman.DesiredChildren = &two

	require.NoError(t, woman.Marry(man, 1))
	assert.Equal(t, 2, *woman.DesiredChildren)
}

func TestPerson_MarryErrors(t *testing.T) {
	w := newTestWorld(t, &stubHazards{}, defaultRules())
	man, woman, _ := newCouple(t, w)
	other := addPerson(t, w, nil, SexFemale, 300)

	assert.ErrorIs(t, man.Marry(nil, 1), ErrRelationshipViolation)
	assert.ErrorIs(t, man.Marry(man, 1), ErrRelationshipViolation)

	require.NoError(t, man.Marry(woman, 1))
	assert.ErrorIs(t, man.Marry(other, 2), ErrRelationshipViolation)
	assert.ErrorIs(t, other.Marry(woman, 2), ErrRelationshipViolation)
	assert.Equal(t, woman.ID(), man.SpouseID(), "failed marriage must not change links")
	assert.False(t, other.IsMarried())

	_, err := other.Kill(3)
	require.NoError(t, err)
	single := addPerson(t, w, nil, SexMale, 300)
	assert.ErrorIs(t, single.Marry(other, 4), ErrRelationshipViolation)
}

func TestPerson_Divorce(t *testing.T) {
	w := newTestWorld(t, &stubHazards{}, defaultRules())
	man, woman, _ := newCouple(t, w)

	assert.ErrorIs(t, man.Divorce(), ErrRelationshipViolation)

	require.NoError(t, man.Marry(woman, 1))
	require.NoError(t, woman.Divorce())
	assert.False(t, man.IsMarried())
	assert.False(t, woman.IsMarried())
}

func TestPerson_EligibilityStopsAtDesiredChildren(t *testing.T) {
	w := newTestWorld(t, &stubHazards{desired: 1}, defaultRules())
	man, woman, home := newCouple(t, w)
	require.NoError(t, man.Marry(woman, 0))

	assert.True(t, woman.IsEligibleForBirth(10))
	baby, err := woman.GiveBirth(10, man)
	require.NoError(t, err)
	require.NoError(t, home.Add(baby))

	assert.False(t, woman.IsEligibleForBirth(11))
}

func TestPerson_EligibilityTiming(t *testing.T) {
	hz := &stubHazards{firstBirth: 12, interval: 24, desired: -1}
	w := newTestWorld(t, hz, defaultRules())
	man, woman, _ := newCouple(t, w)

	assert.False(t, woman.IsEligibleForBirth(5), "unmarried")
	require.NoError(t, man.Marry(woman, 5))
	assert.False(t, man.IsEligibleForBirth(7), "male")
	assert.False(t, woman.IsEligibleForBirth(5.5), "before first birth timing")
	assert.True(t, woman.IsEligibleForBirth(6))

	_, err := woman.GiveBirth(6, man)
	require.NoError(t, err)
	assert.False(t, woman.IsEligibleForBirth(7), "inside birth interval")
	assert.True(t, woman.IsEligibleForBirth(8))

	woman.Age = 46 * 12
	assert.False(t, woman.IsEligibleForBirth(9), "past maximum birth age")
}

func TestPerson_EligibilityIsReadOnly(t *testing.T) {
	w := newTestWorld(t, &stubHazards{desired: 2}, defaultRules())
	man, woman, _ := newCouple(t, w)
	require.NoError(t, man.Marry(woman, 0))

	src := w.Env().Rand.(*entropy.Source)
	draws := src.Draws()
	before := *woman
	first := woman.IsEligibleForBirth(3)
	second := woman.IsEligibleForBirth(3)

	assert.Equal(t, first, second)
	assert.Equal(t, draws, src.Draws())
	assert.Equal(t, before.children, woman.children)
	assert.Equal(t, before.LastBirthTime, woman.LastBirthTime)
}

func TestPerson_GiveBirth(t *testing.T) {
	rules := defaultRules()
	rules.MinBirthIntervalMonths = 9
	w := newTestWorld(t, &stubHazards{interval: 2, desired: 4}, rules)
	man, woman, _ := newCouple(t, w)
	require.NoError(t, man.Marry(woman, 0))
	assert.Equal(t, 9.0, woman.BirthInterval, "interval is floored")

	baby, err := woman.GiveBirth(3.5, man)
	require.NoError(t, err)

	assert.Equal(t, woman.ID(), baby.MotherID())
	assert.Equal(t, man.ID(), baby.FatherID())
	assert.Same(t, woman, baby.Mother())
	assert.Same(t, man, baby.Father())
	assert.Equal(t, 3.5, baby.Birthdate)
	assert.Equal(t, 0, baby.Age)
	assert.Nil(t, baby.Household())
	assert.Equal(t, []ID{baby.ID()}, woman.Children())
	assert.Equal(t, []ID{baby.ID()}, man.Children())
	require.NotNil(t, woman.LastBirthTime)
	assert.Equal(t, 3.5, *woman.LastBirthTime)
}

func TestPerson_GiveBirthErrors(t *testing.T) {
	w := newTestWorld(t, &stubHazards{}, defaultRules())
	man, woman, _ := newCouple(t, w)
	stranger := addPerson(t, w, nil, SexMale, 400)

	_, err := man.GiveBirth(1, woman)
	assert.ErrorIs(t, err, ErrRelationshipViolation)

	require.NoError(t, man.Marry(woman, 0))
	_, err = woman.GiveBirth(1, stranger)
	assert.ErrorIs(t, err, ErrRelationshipViolation)
	_, err = woman.GiveBirth(1, nil)
	assert.ErrorIs(t, err, ErrRelationshipViolation)
	assert.Zero(t, woman.NumChildren())
}

func TestPerson_Kill(t *testing.T) {
	w := newTestWorld(t, &stubHazards{}, defaultRules())
	man, woman, home := newCouple(t, w)
	require.NoError(t, man.Marry(woman, 0))

	hh, err := man.Kill(20)
	require.NoError(t, err)

	assert.Same(t, home, hh)
	assert.False(t, home.Has(man))
	assert.Nil(t, man.Household())
	assert.False(t, man.Alive)
	require.NotNil(t, man.Deathdate)
	assert.Equal(t, 20.0, *man.Deathdate)
	assert.False(t, man.IsMarried())
	assert.False(t, woman.IsMarried())
	assert.Same(t, man, w.Person(man.ID()), "the dead stay resolvable")

	_, err = man.Kill(21)
	assert.ErrorIs(t, err, ErrRelationshipViolation)
}

func TestParseSex(t *testing.T) {
	s, err := ParseSex("female")
	require.NoError(t, err)
	assert.Equal(t, SexFemale, s)
	assert.Equal(t, "male", SexMale.String())

	_, err = ParseSex("unknown")
	assert.ErrorIs(t, err, ErrDomainValue)
}
