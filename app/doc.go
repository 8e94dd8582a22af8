/*
Package app contains the ABCI application plumbing: a store application
that manages the commit store and answers queries, a base application that
decodes transactions and passes them through a chain of decorators to a
message router, and helpers to initialize state from the genesis file.
*/
package app
