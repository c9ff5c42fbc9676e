// Package process abstracts launching external binaries behind a small
// capability interface so the encoder supervisor, the prober and the
// thumbnail generator can be exercised without touching the OS.
//
// Exec is the production implementation on top of os/exec. The processtest
// subpackage provides a scripted fake.
package process
