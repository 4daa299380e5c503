// Package lib provides a Go SDK for running galgo graph algorithms
// programmatically.
//
// This package allows applications to run and estimate algorithms without
// shelling out to the galgo CLI binary.
//
// # Quick Start
//
// Create a client and run an algorithm over an inline graph:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	res, err := client.Run(ctx, lib.RunOpts{
//	    Graph: lib.Graph{
//	        Name:          "web",
//	        Relationships: [][2]int64{{1, 0}, {2, 0}, {3, 0}},
//	    },
//	    Algorithm: "PageRank",
//	    Mode:      lib.ExecutionModeStats,
//	    Config:    map[string]any{"dampingFactor": 0.9},
//	})
//
// # Execution Modes
//
//   - [ExecutionModeStream]: One row per node in [RunResult].Rows.
//   - [ExecutionModeStats]: An aggregated summary in [RunResult].Summary.
//   - [ExecutionModeMutate] and [ExecutionModeWrite]: The result is stored as
//     the node property set by the "property" parameter of the loaded graph.
//
// # Memory Estimation
//
// Estimate how much memory an execution needs before running it:
//
//	est, _ := client.Estimate(ctx, lib.EstimateOpts{
//	    Algorithm: "Degree",
//	    Nodes:     1_000_000,
//	})
//	fmt.Println(est.Memory.Human)
//
// Set [Config].MemoryLimit to reject executions that would need more memory.
//
// # Jobs
//
// Every execution is tracked as a job. [Client.RunningJobs] returns the
// progress of the running ones and [Client.JobHistory] the recorded events of
// the job journal, stored in a SQLite database.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Unknown algorithm or graph.
//   - [ErrNotValid]: Invalid graph, run file or algorithm parameters.
//   - [ErrInsufficientMemory]: The execution exceeds the memory limit.
//   - [ErrTerminated]: The execution context was cancelled.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines.
package lib
