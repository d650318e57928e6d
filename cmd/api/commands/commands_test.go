package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCommandSubcommands(t *testing.T) {
	cmd := NewMigrateCommand()
	assert.Equal(t, "migrate", cmd.Use)

	names := make([]string, 0, 3)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Use)
	}
	assert.ElementsMatch(t, []string{"up", "down", "version"}, names)
}

func TestUserCreateCommandFlags(t *testing.T) {
	cmd := NewUserCommand()
	assert.Equal(t, "user", cmd.Use)

	subs := cmd.Commands()
	require.Len(t, subs, 1)
	create := subs[0]
	assert.Equal(t, "create", create.Use)

	for _, flag := range []string{"username", "email", "password", "name"} {
		assert.NotNil(t, create.Flags().Lookup(flag), flag)
	}
}

func TestBackupCommandSubcommands(t *testing.T) {
	cmd := NewBackupCommand()
	assert.Equal(t, "backup", cmd.Use)

	names := make([]string, 0, 2)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Use)
	}
	assert.ElementsMatch(t, []string{"create", "list"}, names)
}

func TestServeAndVersionCommands(t *testing.T) {
	assert.Equal(t, "serve", NewServeCommand().Use)
	assert.Equal(t, "version", NewVersionCommand().Use)
}
