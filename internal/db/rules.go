package db

import (
	"fmt"
	"strings"
)

const (
	UsersRoot  = "users"
	SharedRoot = "shared"
	TripsNode  = "trips"
	ActiveNode = "active"
)

// JoinPath joins document path segments with "/". Segments may themselves
// contain slashes; empty segments are dropped. Characters the realtime
// database rejects in keys make the path invalid.
func JoinPath(segments ...string) (string, error) {
	parts := Split(strings.Join(segments, "/"))
	for _, p := range parts {
		if strings.ContainsAny(p, ".#$[]") {
			return "", fmt.Errorf("%w: segment %q", ErrInvalidPath, p)
		}
	}
	return strings.Join(parts, "/"), nil
}

// joinFilePath is JoinPath for storage objects, whose names keep their extension.
func joinFilePath(segments ...string) (string, error) {
	parts := Split(strings.Join(segments, "/"))
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty file path", ErrInvalidPath)
	}
	for _, p := range parts {
		if p == "." || p == ".." {
			return "", fmt.Errorf("%w: segment %q", ErrInvalidPath, p)
		}
	}
	return strings.Join(parts, "/"), nil
}

// Split breaks a joined path into its non-empty segments.
func Split(path string) []string {
	raw := strings.Split(path, "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Allowed reports whether uid may read or write the node at path.
//
//	users/{uid}/**          read and write by uid only
//	users/{owner}/trips/**  also readable by any signed-in user, for share links
//	shared/**               read and write by any signed-in user
//
// Everything else, including the tracked trip at users/{owner}/active, is
// private. File paths follow the same rules as documents.
func Allowed(uid, path string, write bool) bool {
	if uid == "" {
		return false
	}
	segs := Split(path)
	if len(segs) == 0 {
		return false
	}
	switch segs[0] {
	case SharedRoot:
		return true
	case UsersRoot:
		if len(segs) < 2 {
			return false
		}
		if segs[1] == uid {
			return true
		}
		return !write && len(segs) >= 3 && segs[2] == TripsNode
	}
	return false
}

func checkAccess(uid, path string, write bool) error {
	if Allowed(uid, path, write) {
		return nil
	}
	op := "read"
	if write {
		op = "write"
	}
	return fmt.Errorf("%w: %s %q", ErrPermissionDenied, op, path)
}
