// Package main provides the entry point for the reqhash CLI.
//
// reqhash reads a Python requirements file, checks each package against the
// configured package indexes, annotates every specifier with the index that
// hosts it, and appends integrity hash entries for the matching distribution
// artifacts.
//
// Usage:
//
//	reqhash requirements.txt
//	reqhash requirements.txt -o requirements.locked.txt -p https://mirror.example/simple
//
// See --help for all available options.
package main

// main is the entry point for reqhash.
func main() {
	Execute()
}
