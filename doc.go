/*
Package custody defines the common interfaces that tie together the
application framework and the escrow extensions, as well as a few simple
types that are shared by all of them (addresses, conditions, results).

We pass context through context.Context between app, middleware, and
handlers. Every value stored in the context has a pair of functions

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ panics if the value was previously set, so that lower level modules
cannot overwrite what the application established (eg. height, chain id).
*/
package custody
