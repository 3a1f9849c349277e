// Package metrics holds the Prometheus collectors shared by the capability
// invoker, the pipeline and the HTTP server.
//
// Collectors are package variables so instrumented code can update them
// without plumbing a registry through every constructor. Nothing is
// registered until the binary calls the Register functions, which keeps
// library users and tests free of global registration side effects.
package metrics
