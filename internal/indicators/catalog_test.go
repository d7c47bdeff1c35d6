package indicators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	descs, err := All()
	require.NoError(t, err)
	require.Len(t, descs, 5)

	geocbi := descs[0]
	assert.Equal(t, "GeoCBI", geocbi.ShortName)
	assert.Equal(t, "Geometrically Structured Composite Burned Index", geocbi.DisplayName)
	assert.False(t, geocbi.HasUnit())
	assert.Equal(t, "0 (unburned) - 3 (completely burned)", geocbi.Range)
	assert.Len(t, geocbi.Applications, 2)
	assert.Contains(t, geocbi.Applications, "Burned Area Discrimination")
	assert.Contains(t, geocbi.Applications, "Fire Severity Estimation")
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"GeoCBI", "cvh", "mnnd", "fe", "fdiv"} {
		d, err := Lookup(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, d.ShortName)
		assert.NotEmpty(t, d.DisplayName)
	}

	_, err := Lookup("ndvi")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAllReturnsCopies(t *testing.T) {
	descs, err := All()
	require.NoError(t, err)
	descs[0].Applications[0] = "mutated"
	descs[0].ShortName = "mutated"

	d, err := Lookup("GeoCBI")
	require.NoError(t, err)
	assert.Equal(t, "Burned Area Discrimination", d.Applications[0])
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, _, err := parse([]byte("- short_name: a\n- short_name: a\n"))
	assert.Error(t, err)

	_, _, err = parse([]byte("- display_name: nameless\n"))
	assert.Error(t, err)
}

func TestMustLookupPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustLookup("unknown") })
	assert.NotPanics(t, func() { MustLookup("fe") })
}
