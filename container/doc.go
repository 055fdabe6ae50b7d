// Package container owns a DAG of operators and runs it.
//
// A Container is built with AddEdge/AddOperator, frozen with Initialize
// and run with Execute. Execute walks the graph level by level: every
// unresolved operator of a level is handed to a fixed worker pool and the
// next level starts only after all of them have reported back. State is
// checkpointed into a snapshot.Store before the run, after each task and
// after the run, which lets a later Execute with backfill skip operators
// that already succeeded.
//
//	c := container.NewBatch("daily", container.WithStore(store))
//	_ = c.AddEdge(extract, transform)
//	_ = c.AddEdge(transform, load)
//	if err := c.Initialize(false); err != nil {
//		return err
//	}
//	res, err := c.Execute(ctx, container.WithWorkers(4), container.WithBackfill(true))
package container
