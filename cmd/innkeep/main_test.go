package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/cmd/innkeep/cli"
	_ "github.com/innkeep/innkeep/testing"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rolesRoleID, rolesJSON = "", false
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRolesCommandJSON(t *testing.T) {
	out, _, err := execute(t, "roles", "--role", "receptionist", "--json")
	require.NoError(t, err)

	var summary cli.RolesSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Roles, 1)
	require.Len(t, summary.Roles[0].Granted, 12)
}

func TestRolesCommandUnknownRole(t *testing.T) {
	_, stderr, err := execute(t, "roles", "--role", "auditor")
	require.Error(t, err)
	require.Contains(t, stderr, "unknown role")
}

func TestServeSkipsInTestMode(t *testing.T) {
	_, _, err := execute(t, "serve")
	require.NoError(t, err)
}
