// Package pipeline builds containers from YAML definitions.
//
// A definition names its nodes, the registered component that implements
// each one and the nodes it depends on. Definitions may include other
// definitions by name; included nodes come first and the first definition
// of a node name wins.
//
//	name: daily
//	mode: batch
//	includes: [ingest]
//	nodes:
//	  - name: report
//	    component: shell
//	    params: {command: "make report"}
//	    depends_on: [load]
//
// Build resolves the includes through a Loader, instantiates every node
// from a Registry and wires the result into a container.Container.
package pipeline
