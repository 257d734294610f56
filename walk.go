// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package markdown

// A Cursor describes a [Node] encountered during [Walk].
type Cursor struct {
	node   Node
	parent Node
	index  int
}

// Node returns the current [Node].
func (c *Cursor) Node() Node {
	return c.node
}

// Parent returns the parent of the current [Node]
// (as returned by [*Cursor.Node])
// or nil if the current node is the root of the walk.
func (c *Cursor) Parent() Node {
	return c.parent
}

// Index returns the index of the current [Node]
// in its parent's children.
func (c *Cursor) Index() int {
	return c.index
}

// WalkOptions is the set of parameters to [Walk].
type WalkOptions struct {
	// If Pre is not nil, it is called for each node before the node's children are traversed (pre-order).
	// If Pre returns false, no children are traversed, and Post is not called for that node.
	Pre func(c *Cursor) bool
	// If Post is not nil, it is called for each node after the node's children are traversed (post-order).
	// If Post returns false, traversal is terminated and Walk returns immediately.
	Post func(c *Cursor) bool
}

// Walk traverses a [Node] recursively, starting with root,
// and calling [WalkOptions.Pre] and [WalkOptions.Post].
// Walk keeps its own stack,
// so arbitrarily deep trees do not exhaust the goroutine stack.
func Walk(root Node, opts *WalkOptions) {
	// Each pending entry is a cursor plus whether its children
	// have already been pushed.
	type pending struct {
		Cursor
		visited bool
	}

	todo := []pending{{Cursor: Cursor{node: root}}}
	for len(todo) > 0 {
		top := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		c := top.Cursor
		if top.visited {
			if opts.Post != nil && !opts.Post(&c) {
				return
			}
			continue
		}
		if opts.Pre != nil && !opts.Pre(&c) {
			continue
		}
		todo = append(todo, pending{Cursor: c, visited: true})
		for i := ChildCount(c.node) - 1; i >= 0; i-- {
			todo = append(todo, pending{Cursor: Cursor{
				node:   Child(c.node, i),
				parent: c.node,
				index:  i,
			}})
		}
	}
}

// WalkBlocks calls [Walk] on each block in order.
// It stops early if a Post hook terminates the traversal.
func WalkBlocks(blocks []Block, opts *WalkOptions) {
	stopped := false
	wrapped := &WalkOptions{Pre: opts.Pre}
	wrapped.Post = func(c *Cursor) bool {
		if opts.Post != nil && !opts.Post(c) {
			stopped = true
			return false
		}
		return true
	}
	for _, b := range blocks {
		Walk(b, wrapped)
		if stopped {
			return
		}
	}
}
