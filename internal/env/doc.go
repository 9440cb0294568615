// Package env composes test environments out of modules.
//
// An environment is a named Provider that contributes modules to a
// ModuleSet. The set orders modules so that every module follows its
// requirements, breaking ties by registration order. Factory.Create then
// applies each module to a shared Builder, binding the module's declared
// ports with the chosen port.Binder, and snapshots the result into an
// immutable Definition for the container runtime.
package env
