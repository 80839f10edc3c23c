package tagdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

func TestInternTagReturnsSameIndexForEqualValues(t *testing.T) {
	db := tagdb.New()

	t1 := tagdb.Tag{RF: tagdb.Rise, APIndex: 0, IsClockPath: true}
	t2 := tagdb.Tag{RF: tagdb.Rise, APIndex: 0, IsClockPath: true}
	t3 := tagdb.Tag{RF: tagdb.Fall, APIndex: 0, IsClockPath: true}

	i1 := db.InternTag(t1)
	i2 := db.InternTag(t2)
	i3 := db.InternTag(t3)

	assert.Equal(t, i1, i2)
	assert.NotEqual(t, i1, i3)
}

func TestInternTagGroupCanonicalizesOrder(t *testing.T) {
	db := tagdb.New()

	a := db.InternTag(tagdb.Tag{RF: tagdb.Rise})
	b := db.InternTag(tagdb.Tag{RF: tagdb.Fall})

	g1 := db.InternTagGroup([]int{a, b})
	g2 := db.InternTagGroup([]int{b, a})
	assert.Equal(t, g1, g2, "insertion order must not affect group identity")

	tags := db.GroupTags(g1)
	require.Len(t, tags, 2)
	assert.Equal(t, a, tags[0], "group stores tags in sorted order")
}

func TestInternTagGroupDedupes(t *testing.T) {
	db := tagdb.New()
	a := db.InternTag(tagdb.Tag{RF: tagdb.Rise})

	g := db.InternTagGroup([]int{a, a, a})
	assert.Equal(t, 1, db.GroupSize(g))
}

func TestThruTagPropagatesClockPathAcrossOrdinaryEdge(t *testing.T) {
	db := tagdb.New()
	from := db.InternTag(tagdb.Tag{RF: tagdb.Rise, IsClockPath: true})

	to := db.ThruTag(from, tagdb.Fall, tagdb.ThruTagEdge{})
	got := db.Tag(to)

	assert.True(t, got.IsClockPath)
	assert.Equal(t, tagdb.Fall, got.RF)
}

func TestThruTagBreaksClockPathAtDisabledTristateEnable(t *testing.T) {
	db := tagdb.New()
	from := db.InternTag(tagdb.Tag{RF: tagdb.Rise, IsClockPath: true})

	to := db.ThruTag(from, tagdb.Rise, tagdb.ThruTagEdge{
		IsTristateEnable:       true,
		ClkThruTristateEnabled: false,
	})
	assert.False(t, db.Tag(to).IsClockPath)
}

func TestThruTagCaseAnalysisOverridesClkThruTristate(t *testing.T) {
	db := tagdb.New()
	from := db.InternTag(tagdb.Tag{RF: tagdb.Rise, IsClockPath: true})

	to := db.ThruTag(from, tagdb.Rise, tagdb.ThruTagEdge{
		IsTristateEnable:           true,
		ClkThruTristateEnabled:     true,
		TristateCaseAnalysisActive: true,
	})
	assert.False(t, db.Tag(to).IsClockPath, "case analysis on the enable pin wins over clk_thru_tristate")
}

func TestThruTagAdvancesMatchedExceptionStates(t *testing.T) {
	db := tagdb.New()
	state := db.InternExceptionState(tagdb.ExceptionState{ExceptionSeq: 1, ThruCount: 2})
	set := db.InternExceptionStateSet([]int{state})
	from := db.InternTag(tagdb.Tag{RF: tagdb.Rise, ExcStateSetIdx: set})

	to := db.ThruTag(from, tagdb.Rise, tagdb.ThruTagEdge{MatchedThrough: []int{state}})
	gotSet := db.Tag(to).ExcStateSetIdx
	gotStates := db.ExceptionStateSet(gotSet)

	require.Len(t, gotStates, 1)
	advanced := db.ExceptionState(gotStates[0])
	assert.Equal(t, 1, advanced.ThruIndex)
	assert.False(t, advanced.Complete())
}

func TestExceptionStateCompleteAtThruCount(t *testing.T) {
	s := tagdb.ExceptionState{ThruIndex: 2, ThruCount: 2}
	assert.True(t, s.Complete())

	s2 := tagdb.ExceptionState{ThruIndex: 1, ThruCount: 2}
	assert.False(t, s2.Complete())
}
