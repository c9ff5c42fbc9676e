// Package progress extracts best-effort progress samples from the encoder's
// stderr and turns them into a monotonic percentage.
//
// The encoder rewrites its status line with carriage returns, so input is
// split on both '\r' and '\n'. Each line is scanned for independent optional
// fields; a line carrying none of them is not a sample.
package progress
