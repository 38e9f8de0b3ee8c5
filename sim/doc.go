// Package sim provides the discrete-event substrate for sirsim.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - simulator.go: Context, the per-scenario instance (clock, plan queue, observers)
//   - event.go: plans and the (time, insertion order) priority queue
//   - people.go: the columnar person table and the S -> I -> {R, D} transition graph
//
// # Architecture
//
// The sim package owns the mechanics; model behavior lives in sub-packages:
//   - sim/sir/: population, seeding, transmission, infection outcome, reports
//   - sim/scenario/: multi-scenario runner, output tables, run summary
//
// # Key Contracts
//
//   - Plans execute strictly in nondecreasing time; ties fire in insertion order.
//   - Status observers run synchronously after each change, in registration
//     order, and may not change any status themselves.
//   - Every named random stream is derived from the scenario seed, so a
//     Context never shares randomness with another Context.
package sim
