package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wwwbq/FlashMemo/pkg/core"
)

func TestSuccessPolicy(t *testing.T) {
	boom := errors.New("boom")
	mixed := []core.TagOutcome{{Tag: "a"}, {Tag: "b", Err: boom}}
	allOK := []core.TagOutcome{{Tag: "a"}, {Tag: "b"}}
	allBad := []core.TagOutcome{{Tag: "a", Err: boom}}

	assert.True(t, core.PolicyAny.Accepts(mixed))
	assert.False(t, core.PolicyAll.Accepts(mixed))
	assert.True(t, core.PolicyAll.Accepts(allOK))
	assert.False(t, core.PolicyAny.Accepts(allBad))
	assert.False(t, core.PolicyAny.Accepts(nil))
}

func TestParseSuccessPolicy(t *testing.T) {
	p, err := core.ParseSuccessPolicy("")
	require.NoError(t, err)
	assert.Equal(t, core.PolicyAny, p)

	p, err = core.ParseSuccessPolicy("ALL")
	require.NoError(t, err)
	assert.Equal(t, core.PolicyAll, p)

	_, err = core.ParseSuccessPolicy("most")
	assert.Error(t, err)
}

func TestNewSaveResult(t *testing.T) {
	boom := errors.New("disk full")
	outcomes := []core.TagOutcome{{Tag: "work", Ref: "work/x.md"}, {Tag: "todo", Err: boom}}

	res, err := core.NewSaveResult(core.Note{ID: "x"}, outcomes, core.PolicyAny)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.True(t, res.Partial())
	assert.Equal(t, "saved to [work], failed for [todo]", res.Summary())

	res, err = core.NewSaveResult(core.Note{ID: "x"}, outcomes, core.PolicyAll)
	assert.False(t, res.OK)
	assert.ErrorIs(t, err, core.ErrSaveFailed)
	assert.ErrorIs(t, err, boom)
}
