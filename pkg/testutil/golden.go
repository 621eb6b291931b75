// Package testutil holds helpers shared by wipe's package tests.
package testutil

import (
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bradleyjkemp/cupaloy/v2"
)

var update = flag.Bool("update", false, "rewrite golden files")

// Golden compares rendered output against testdata/golden/<TestName>.
// A missing or different snapshot fails the test; -update records it.
type Golden struct {
	t    *testing.T
	snap *cupaloy.Config
}

func NewGolden(t *testing.T) *Golden {
	t.Helper()
	return &Golden{
		t: t,
		snap: cupaloy.New(
			cupaloy.SnapshotSubdirectory(filepath.Join("testdata", "golden")),
			cupaloy.ShouldUpdate(func() bool { return *update }),
			cupaloy.CreateNewAutomatically(*update),
			cupaloy.FailOnUpdate(false),
		),
	}
}

// Assert snapshots got under the test's name.
func (g *Golden) Assert(got string) {
	g.t.Helper()
	if err := g.compare(g.t.Name(), got); err != nil {
		g.t.Fatalf("golden mismatch: %v\n\nrun `go test -update` if the change is intended", err)
	}
}

// AssertWithName snapshots got under name, for tests with several outputs.
func (g *Golden) AssertWithName(name, got string) {
	g.t.Helper()
	if err := g.compare(g.t.Name()+"_"+name, got); err != nil {
		g.t.Fatalf("golden mismatch for %s: %v\n\nrun `go test -update` if the change is intended", name, err)
	}
}

func (g *Golden) compare(name, got string) error {
	return g.snap.SnapshotWithName(snapshotName(name), got)
}

func snapshotName(name string) string {
	return strings.ReplaceAll(name, "/", "_")
}
