// Package resource models a capacity-bounded actuation target with a safety
// reserve, such as a distributed energy resource. A Resource is exclusively
// owned and mutated by exactly one dispatch agent; every other component
// reads it only. The reserve fraction is the floor the state of charge can
// never be discharged below.
package resource
