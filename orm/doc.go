/*
Package orm provides an easy to use db wrapper.

A ModelBucket stores models of a single type under a common key prefix. It
validates every model before it is written and decodes values into the
destination given by the caller, so that handlers work with typed structures
only. Sequences provide monotonic identifiers for models that do not have a
natural key.
*/
package orm
