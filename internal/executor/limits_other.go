//go:build !unix

package executor

func hostTaskCapacity() (int, bool) { return 0, false }
