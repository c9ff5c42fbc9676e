// Command hashkey manages the API key that protects the transcoder API.
//
// The server stores only a bcrypt hash of the key, read from API_KEY_HASH.
// This utility produces and checks such hashes.
//
// Usage:
//
//	hashkey <command>
//
// Commands:
//
//	generate  Prompt for a key twice and print its bcrypt hash.
//
//	random    Create a random key and print it together with its hash.
//	          The key is shown once and cannot be recovered from the hash.
//
//	verify    Prompt for a key and report whether it matches API_KEY_HASH.
//
// Environment:
//
//	API_KEY_HASH - Hash checked by the verify command
//	BCRYPT_COST  - Hashing cost for generate and random (default: 12)
package main
