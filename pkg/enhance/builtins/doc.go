// Package builtins provides the stock enhancers shipped with the server:
// metadata stamping, risk assessment, next-step suggestions and team
// activity. Catalog returns the factory table used for config-driven
// discovery.
package builtins
