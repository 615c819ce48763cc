// Package reqfile reads and writes Python requirements files.
//
// The parser validates every specifier line up front and fails fast on the
// first malformed line; a requirements file is either entirely valid or
// rejected. Comment and blank lines survive the round trip so the annotated
// output keeps the shape of the input file.
package reqfile
