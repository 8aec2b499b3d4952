// Package dynamo provides the core primitives shared by the solver and the
// time-stepping driver.
//
// The package defines the fundamental interfaces and types:
//
//   - [State]: complex coefficient vector advanced by an integrator
//   - [System]: autonomous or time-dependent ODE right-hand side dy/dt = f(y, t)
//   - [Integrator]: single-step numerical integrator
//   - [AdaptiveIntegrator]: integrator with error-controlled step size
//
// # Example
//
//	sys, _ := vlasov.New(params)
//	integ := integrators.NewRK4()
//	s := sim.New(sys, integ)
//	result, _ := s.Run(ctx, y0, cfg)
//
// # Thread Safety
//
// System implementations must be safe for concurrent Derive calls; they
// receive a read-only State and return a freshly allocated one. Integrators
// keep scratch buffers and are NOT safe for concurrent use.
package dynamo
