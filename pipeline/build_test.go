package pipeline

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/kbukum/opflow/container"
	apperrors "github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/operator"
)

func node(name, component string, deps ...string) NodeDef {
	return NodeDef{Name: name, Component: component, DependsOn: deps}
}

func nodeIDs(def *Definition) []string {
	ids := make([]string, 0, len(def.Nodes))
	for _, n := range def.Nodes {
		ids = append(ids, n.ID())
	}
	return ids
}

func TestResolveIncludes(t *testing.T) {
	loader := MapLoader{
		"base":    {Name: "base", Nodes: []NodeDef{node("extract", "dummy")}},
		"left":    {Name: "left", Includes: []string{"base"}, Nodes: []NodeDef{node("clean", "dummy", "extract")}},
		"right":   {Name: "right", Includes: []string{"base"}, Nodes: []NodeDef{node("enrich", "dummy", "extract")}},
		"cycle-a": {Name: "cycle-a", Includes: []string{"cycle-b"}, Nodes: []NodeDef{node("a", "dummy")}},
		"cycle-b": {Name: "cycle-b", Includes: []string{"cycle-a"}, Nodes: []NodeDef{node("b", "dummy")}},
	}

	t.Run("diamond includes merge once", func(t *testing.T) {
		def := &Definition{
			Name:     "daily",
			Includes: []string{"left", "right"},
			Nodes:    []NodeDef{node("load", "dummy", "clean", "enrich"), node("extract", "fail")},
		}
		flat, err := Resolve(def, loader)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"extract", "clean", "enrich", "load"}
		if got := nodeIDs(flat); !reflect.DeepEqual(got, want) {
			t.Errorf("nodes = %v, want %v", got, want)
		}
		if flat.Nodes[0].Component != "dummy" {
			t.Errorf("first definition of extract should win, got component %q", flat.Nodes[0].Component)
		}
	})

	t.Run("circular include", func(t *testing.T) {
		_, err := Resolve(&Definition{Name: "top", Includes: []string{"cycle-a"}}, loader)
		if err == nil || !strings.Contains(err.Error(), "circular include") {
			t.Errorf("expected circular include error, got %v", err)
		}
	})

	t.Run("missing include", func(t *testing.T) {
		_, err := Resolve(&Definition{Name: "top", Includes: []string{"nope"}}, loader)
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("unknown dependency", func(t *testing.T) {
		_, err := Resolve(&Definition{Name: "top", Nodes: []NodeDef{node("a", "dummy", "ghost")}}, nil)
		if !apperrors.Is(err, apperrors.ErrInvalidConfig) {
			t.Errorf("expected INVALID_CONFIG, got %v", err)
		}
	})
}

func TestBuildAndRun(t *testing.T) {
	def, err := Parse([]byte(`
name: nightly
mode: batch
nodes:
  - name: a
    component: dummy
  - name: b
    component: sleep
    params: {duration: 10ms}
  - name: c
    component: shell
    params: {command: "true"}
    depends_on: [a, b]
  - name: d
    component: dummy
    depends_on: [c]
`))
	if err != nil {
		t.Fatal(err)
	}

	c, err := Build(def, DefaultRegistry(), nil,
		WithContainerOptions(container.WithLogger(logger.Nop())),
		WithOperatorLogging(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	if c.DataModel() != operator.Batch {
		t.Errorf("DataModel = %v, want BATCH", c.DataModel())
	}
	levels, err := c.Levels()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"a", "b"}, {"c"}, {"d"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("levels = %v, want %v", levels, want)
	}

	if err := c.Initialize(false); err != nil {
		t.Fatal(err)
	}
	res, err := c.Execute(context.Background(), container.WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != operator.Succeeded {
		t.Errorf("status = %v, operators %v", res.Status, res.Operators)
	}
}

func TestBuildFailComponent(t *testing.T) {
	def := &Definition{Name: "broken", Nodes: []NodeDef{
		{Name: "boom", Component: ComponentFail, Params: Params{"message": "disk full"}},
		node("after", "dummy", "boom"),
	}}
	c, err := Build(def, DefaultRegistry(), nil, WithContainerOptions(container.WithLogger(logger.Nop())))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Initialize(false); err != nil {
		t.Fatal(err)
	}
	res, err := c.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != operator.Failed {
		t.Errorf("status = %v, want FAILED", res.Status)
	}
	if res.Operators["after"] != operator.Succeeded {
		t.Errorf("child of a failed node should still run, got %v", res.Operators["after"])
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		def  *Definition
		want error
	}{
		{"unknown component", &Definition{Name: "x", Nodes: []NodeDef{node("a", "spark")}}, apperrors.ErrNotFound},
		{"shell without command", &Definition{Name: "x", Nodes: []NodeDef{node("a", ComponentShell)}}, apperrors.ErrInvalidConfig},
		{"bad duration", &Definition{Name: "x", Nodes: []NodeDef{{Name: "a", Component: ComponentSleep, Params: Params{"duration": "soon"}}}}, apperrors.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.def, DefaultRegistry(), nil)
			if !apperrors.Is(err, tt.want) {
				t.Errorf("Build error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistryList(t *testing.T) {
	got := DefaultRegistry().List()
	want := []string{ComponentDummy, ComponentFail, ComponentShell, ComponentSleep}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}
