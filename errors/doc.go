/*
Package errors implements the error model used by every custody module.

Each failure is rooted in a registered *Error. A registered error carries an
ABCI code and is safe to expose to the client. Use Register(code, desc) to
declare a new root error, most likely in the extension package that owns it.
Create instances at runtime with ErrXyz.New / ErrXyz.Newf or by wrapping with
Wrap / Wrapf. The innermost wrap attaches a stack trace.

	%s   is the error message
	%+v  prints the stack trace of the creation point

An error that does not wrap a registered root error is considered internal.
Its message is replaced with a generic one when returned through ABCI unless
the application runs in debug mode.
*/
package errors
