package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// runApp runs args against a root command wired like main, capturing stdout
// and stderr. Exit errors are returned instead of terminating the test.
func runApp(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := &cli.Command{
		Name:      "halo-verify",
		Writer:    &stdout,
		ErrWriter: &stderr,
		Reader:    strings.NewReader(stdin),
		Flags:     LoggingFlags(),
		Commands: []*cli.Command{
			VerifyCommand(),
			BatchCommand(),
			DecodeCommand(),
			AttestationCommand(),
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	err := app.Run(context.Background(), append([]string{"halo-verify"}, args...))
	return stdout.String(), stderr.String(), err
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()

	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, code, exitErr.ExitCode())
}

func flagNames(flags []cli.Flag) map[string]bool {
	names := make(map[string]bool)
	for _, f := range flags {
		for _, n := range f.Names() {
			names[n] = true
		}
	}
	return names
}
