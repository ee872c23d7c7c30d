/*
Package errors implements custom error interfaces for tokenflow.

The idea is to reuse as many errors from this package as possible and define
custom package errors only when absolutely necessary.

If you want to register a custom error use Register(code, description). For
reusing errors use ErrXyz.New and ErrXyz.Newf. The code allows a remote
party to distinguish types of errors and act accordingly: a responder that
rejects a transaction sends Code(err) over the session and the initiator
rebuilds the typed error with FromCode.

Contract validation evaluates every rule and clubs all failures together
with Append. Use First to surface the earliest failing rule and Is to
test for a root error anywhere in the aggregate.

There is also support for stacktraces. Please ensure you create the custom
error using ErrXyz.New("...") or errors.Wrap(err, "...") at the point of
creation to ensure we attach a stacktrace. If you wrap multiple times, we
only record the first wrap with the stacktrace.

Once you have an error, you can use fmt.Printf/Sprintf to get more context
	%s is just the error message
	%+v is the full stack trace
*/
package errors
