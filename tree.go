package s3fs

import (
	"context"
	"sort"
	"strings"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/validation"
)

// TreeNode is one node of a key path tree. Directory nodes are synthesized
// from key segments; leaf nodes carry the full object key.
type TreeNode struct {
	// Name is the path segment this node represents
	Name string

	// Path is the full path from the root, without a trailing slash
	Path string

	// Key is the object key, set only on leaf nodes
	Key string

	// IsDir reports whether this node is a directory
	IsDir bool

	// Children are the child nodes, ordered by name
	Children []*TreeNode
}

// child returns the existing child with the given name, or nil.
func (n *TreeNode) child(name string) *TreeNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Walk calls fn for every node in depth-first order, the root included.
func (n *TreeNode) Walk(fn func(*TreeNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// BuildTree builds a key path tree from a flat key listing.
//
// Keys are split on "/" into path segments; intermediate segments become
// directory nodes, deduplicated across keys. The final segment becomes a
// leaf unless the key ends in "/", which marks an explicit directory.
// Keys are inserted in sorted order, so each node's children come out
// ordered by name without a separate sort pass.
// filter, when non-empty, keeps only keys containing it case-insensitively.
// The returned stats report how many keys matched out of the total.
func BuildTree(keys []string, filter string) (*TreeNode, fstypes.TreeStats) {
	stats := fstypes.TreeStats{Total: len(keys)}

	matched := make([]string, 0, len(keys))
	needle := strings.ToLower(filter)
	for _, key := range keys {
		if key == "" {
			stats.Total--
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(key), needle) {
			continue
		}
		matched = append(matched, key)
	}
	stats.Matched = len(matched)
	sort.Strings(matched)

	root := &TreeNode{IsDir: true}
	for _, key := range matched {
		isDirKey := strings.HasSuffix(key, "/")
		segments := strings.Split(strings.TrimSuffix(key, "/"), "/")

		node := root
		for i, segment := range segments {
			if segment == "" {
				continue
			}
			last := i == len(segments)-1
			isLeaf := last && !isDirKey

			next := node.child(segment)
			if next == nil {
				path := segment
				if node.Path != "" {
					path = node.Path + "/" + segment
				}
				next = &TreeNode{
					Name:  segment,
					Path:  path,
					IsDir: !isLeaf,
				}
				node.Children = append(node.Children, next)
			} else if !isLeaf {
				// A key that is both an object and a prefix of other keys
				// promotes to a directory so leaves never carry children.
				next.IsDir = true
			}
			if isLeaf {
				next.Key = key
			}
			node = next
		}
	}

	return root, stats
}

// LoadTree lists every key under prefix and builds its path tree.
// filter, when non-empty, keeps only keys containing it case-insensitively.
func (c *Client) LoadTree(
	ctx context.Context,
	bucket, prefix, filter string,
) (*TreeNode, fstypes.TreeStats, error) {
	if err := validation.BucketName(bucket); err != nil {
		return nil, fstypes.TreeStats{}, err
	}

	keys, err := c.ListKeys(ctx, bucket, prefix)
	if err != nil {
		return nil, fstypes.TreeStats{}, errors.New("loadTree", err).WithBucket(bucket)
	}

	root, stats := BuildTree(keys, filter)
	c.log.Debug("tree loaded",
		"bucket", bucket, "prefix", prefix, "matched", stats.Matched, "total", stats.Total)
	return root, stats, nil
}
