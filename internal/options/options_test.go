package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	field int
	name  string
	calls []string
}

func withField(n int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if n < 0 {
			return errors.New("field id cannot be negative")
		}
		c.field = n
		c.calls = append(c.calls, "field")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.name = name
		c.calls = append(c.calls, "name")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		c := &testConfig{}
		err := Apply(c, withName("B052"), withField(3), withName("B053"))
		require.NoError(t, err)
		require.Equal(t, 3, c.field)
		require.Equal(t, "B053", c.name)
		require.Equal(t, []string{"name", "field", "name"}, c.calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		c := &testConfig{}
		err := Apply(c, withField(-1), withName("never"))
		require.EqualError(t, err, "field id cannot be negative")
		require.Empty(t, c.calls)
	})

	t.Run("skips nil options", func(t *testing.T) {
		c := &testConfig{}
		err := Apply(c, nil, withField(4))
		require.NoError(t, err)
		require.Equal(t, 4, c.field)
	})

	t.Run("no options", func(t *testing.T) {
		c := &testConfig{}
		require.NoError(t, Apply(c))
		require.Empty(t, c.calls)
	})
}

func TestNilFunc(t *testing.T) {
	var fn Func[*testConfig]
	c := &testConfig{}
	require.NoError(t, Apply[*testConfig](c, fn))
	require.Empty(t, c.calls)
}
