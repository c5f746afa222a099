package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterArgs_SeparateValue(t *testing.T) {
	got := FilterArgs([]string{"-d", "dsn", "-x", "nope", "-s", "secret"}, []string{"-d", "-s"})
	require.Equal(t, []string{"-d", "dsn", "-s", "secret"}, got)
}

func TestFilterArgs_EqualsForm(t *testing.T) {
	got := FilterArgs([]string{"--config=conf.json", "--other=1"}, []string{"--config"})
	require.Equal(t, []string{"--config=conf.json"}, got)
}

func TestFilterArgs_FlagWithoutValue(t *testing.T) {
	got := FilterArgs([]string{"-d", "-s", "secret"}, []string{"-d", "-s"})
	require.Equal(t, []string{"-d", "-s", "secret"}, got)
}

func TestFilterArgs_Empty(t *testing.T) {
	got := FilterArgs(nil, []string{"-d"})
	require.NotNil(t, got)
	require.Len(t, got, 0)
}

func TestJsonConfigFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"test", "-c", "conf.json", "-d", "dsn"}
	require.Equal(t, "conf.json", JsonConfigFlags())

	os.Args = []string{"test"}
	require.Equal(t, "", JsonConfigFlags())
}
