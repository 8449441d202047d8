// Package sim runs an n-body simulation in real time.
//
// A [Driver] owns the current [physics.State] and streams snapshots to a
// [Sink] at a fixed wall-clock rate, while consumers steer it through an
// inbound channel of [Instruction] values:
//
//   - [Stop]: stop advancing and emit a single empty [Frame]
//   - [Configure]: set the speed multiplier and optionally replace the state
//
// Each tick the driver takes the latest pending instruction (older ones are
// superseded), emits the current state, advances it by
// [Config.StepsPerTick] kernel steps and sleeps for whatever is left of the
// tick interval.
//
// # Example
//
//	d := sim.New(sim.DefaultConfig())
//	sess := sim.Start(ctx, d)
//	defer sess.Close()
//
//	sess.Send(sim.Configure(1.0, &initial))
//	for f := range sess.Frames() {
//	    if f.Stopped() { ... }
//	}
//
// # Thread Safety
//
// The held state is owned by the goroutine executing [Driver.Run]. Consumers
// only ever see clones, and replacement states are cloned when the
// instruction is built.
package sim
