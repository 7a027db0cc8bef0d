//go:build !unix

package static

func isNameTooLong(error) bool { return false }

func isNotDir(error) bool { return false }
