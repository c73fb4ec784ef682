//go:build !unix

package storage

import "os"

// Without flock the lock is advisory only and a second writer is not detected.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
