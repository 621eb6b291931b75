package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zaptest"
)

// ExecuteCommand mounts sub under a throwaway "wipe" root carrying the
// persistent flags every subcommand expects, runs it with args, and returns
// what it printed.
func ExecuteCommand(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	prev := logger.L()
	logger.SetLogger(zaptest.NewLogger(t))
	t.Cleanup(func() { logger.SetLogger(prev) })

	root := &cobra.Command{Use: "wipe", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "", "")
	root.PersistentFlags().String("env-file", "", "")
	root.AddCommand(sub)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{sub.Name()}, args...))

	_, err := root.ExecuteContextC(context.Background())
	return out.String(), err
}
