package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const fixtureCSV = `Product,Age,Gender,Education,MaritalStatus,Usage,Fitness,Income,Miles
KP281,18,Male,14,Single,3,4,29562,112
KP281,19,Male,15,Single,2,3,31836,75
KP281,19,Female,14,Partnered,4,3,30699,66
KP281,20,Male,12,Single,3,3,32973,85
KP281,20,Female,13,Partnered,4,2,35247,47
KP281,21,Female,14,Partnered,3,3,32973,66
KP281,22,Male,14,Single,3,3,600000,85
KP481,19,Male,14,Single,3,3,31836,64
KP481,23,Female,16,Partnered,3,3,40932,85
KP481,25,Female,14,Partnered,2,3,45480,53
KP781,22,Male,14,Single,4,3,48658,106
KP781,24,Female,16,Partnered,5,5,61006,200
KP781,27,Male,18,Single,4,5,83416,180
`

// isolate points HOME at a temp dir so no user config leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFixture(t *testing.T, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// resetFlags restores every flag to its default; bound vars and Changed state
// otherwise persist across Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns what it printed to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is execute that fails the test on error.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}
