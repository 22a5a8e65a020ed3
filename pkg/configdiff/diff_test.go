package configdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fullConfig struct {
	Name    string
	Count   int
	Enabled bool
}

type partialConfig struct {
	Name    *string
	Count   *int
	Enabled *bool
}

func ptr[T any](v T) *T { return &v }

func TestMergeAppliesOnlySetFields(t *testing.T) {
	base := fullConfig{Name: "orig", Count: 1, Enabled: false}
	merged, err := Merge(base, partialConfig{Count: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, "orig", merged.Name)
	assert.Equal(t, 5, merged.Count)
	assert.False(t, merged.Enabled)
}

func TestComputeAndIsEmpty(t *testing.T) {
	orig := fullConfig{Name: "a", Count: 1, Enabled: false}
	partial := partialConfig{Name: ptr("a"), Count: ptr(2)}

	d := Compute(orig, partial)
	require.False(t, d.IsEmpty())
	assert.Len(t, d, 1)
	assert.Equal(t, FieldDiff{From: 1, To: 2}, d["Count"])

	same := Compute(orig, partialConfig{Name: ptr("a")})
	assert.True(t, same.IsEmpty())
}

func TestNarrowRoundTrip(t *testing.T) {
	orig := fullConfig{Name: "a", Count: 1}
	partial := partialConfig{Count: ptr(9)}
	d := Compute(orig, partial)

	narrowed := Narrow[partialConfig](d)
	require.NotNil(t, narrowed.Count)
	assert.Equal(t, 9, *narrowed.Count)
	assert.Nil(t, narrowed.Name)

	redone := Compute(orig, narrowed)
	assert.Equal(t, d, redone)
}

func TestToPartialRoundTripIsIdentity(t *testing.T) {
	full := fullConfig{Name: "x", Count: 3, Enabled: true}
	partial := ToPartial[partialConfig](full)
	merged, err := Merge(fullConfig{}, partial)
	require.NoError(t, err)
	assert.Equal(t, full, merged)
}

func TestIsEmptyPartial(t *testing.T) {
	assert.True(t, IsEmptyPartial(partialConfig{}))
	assert.False(t, IsEmptyPartial(partialConfig{Name: ptr("x")}))
}

func TestFieldsOrderMatchesPartialDeclaration(t *testing.T) {
	d := Diff{"Enabled": FieldDiff{From: false, To: true}, "Name": FieldDiff{From: "a", To: "b"}}
	names := Fields[partialConfig](d)
	assert.Equal(t, []string{"Name", "Enabled"}, names)
}
