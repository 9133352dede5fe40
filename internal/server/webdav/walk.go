package webdav

import (
	"davd/internal/server/provider"
)

type walkFunc func(rel string, fi provider.FileInfo, err error) error

// walkProvider traverses the resource tree under rel up to depth
// levels, in pre-order: the collection itself, then each child in name
// order, descending into a sub-collection before moving to its
// siblings. Listing errors are reported through fn and stop only the
// affected subtree.
func walkProvider(p provider.Provider, depth int, rel string, fi provider.FileInfo, fn walkFunc) error {
	return walkRecursive(p, depth, rel, fi, fn, 0)
}

func walkRecursive(p provider.Provider, depth int, rel string, fi provider.FileInfo, fn walkFunc, recursion int) error {
	if recursion >= recursionMax {
		return errRecursionTooDeep
	}

	if err := fn(rel, fi, nil); err != nil {
		return err
	}
	if !fi.IsDir || depth == 0 {
		return nil
	}

	childDepth := depth
	if depth == 1 {
		childDepth = 0
	}

	children, err := p.List(rel)
	if err != nil {
		fn(rel, fi, err)
		return nil
	}
	for _, c := range children {
		crel := joinRel(rel, c.Name)
		if c.IsDir && childDepth != 0 {
			if err := walkRecursive(p, childDepth, crel, c, fn, recursion+1); err != nil {
				return err
			}
		} else {
			if err := fn(crel, c, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinRel(rel, name string) string {
	if rel == "/" {
		return "/" + name
	}
	return rel + "/" + name
}
