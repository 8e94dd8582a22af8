/*
Package gconf implements a configuration store intended to be used as a
per package, in-database singleton.

A configuration is a model that can validate and serialize itself. It is
written once, either from the genesis file or by an instantiate message, and
loaded explicitly by every handler that needs it.
*/
package gconf
