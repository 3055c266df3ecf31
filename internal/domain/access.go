package domain

import "sort"

type Menu struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Path     string  `json:"path,omitempty"`
	Icon     string  `json:"icon,omitempty"`
	ParentID *string `json:"parentId"`
	Order    int     `json:"order"`
}

type MenuNode struct {
	Menu
	Children []*MenuNode `json:"children"`
}

// BuildMenuTree nests flat menu rows by ParentID, ordering siblings by Order
// then label. Rows pointing at a missing parent are promoted to the root.
// So is the first row, in input order, of every parent cycle; the rest of
// the cycle hangs below it.
func BuildMenuTree(menus []Menu) []*MenuNode {
	nodes := make(map[string]*MenuNode, len(menus))
	for _, m := range menus {
		nodes[m.ID] = &MenuNode{Menu: m, Children: []*MenuNode{}}
	}

	roots := []*MenuNode{}
	parents := make(map[*MenuNode]*MenuNode, len(menus))
	for _, m := range menus {
		node := nodes[m.ID]
		if m.ParentID != nil && *m.ParentID != m.ID {
			if parent, ok := nodes[*m.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				parents[node] = parent
				continue
			}
		}
		roots = append(roots, node)
	}

	reached := make(map[*MenuNode]bool, len(nodes))
	for _, root := range roots {
		markReached(root, reached)
	}
	for _, m := range menus {
		node := nodes[m.ID]
		if reached[node] {
			continue
		}
		parent := parents[node]
		parent.Children = removeMenuNode(parent.Children, node)
		roots = append(roots, node)
		markReached(node, reached)
	}

	sortMenuNodes(roots)
	return roots
}

func markReached(node *MenuNode, reached map[*MenuNode]bool) {
	if reached[node] {
		return
	}
	reached[node] = true
	for _, child := range node.Children {
		markReached(child, reached)
	}
}

func removeMenuNode(nodes []*MenuNode, target *MenuNode) []*MenuNode {
	for i, n := range nodes {
		if n == target {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

func sortMenuNodes(nodes []*MenuNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].Label < nodes[j].Label
	})
	for _, n := range nodes {
		sortMenuNodes(n.Children)
	}
}

type MenuInput struct {
	Label    string `json:"label,omitempty" validate:"required,max=80"`
	Path     string `json:"path,omitempty" validate:"omitempty,startswith=/"`
	Icon     string `json:"icon,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	Order    int    `json:"order" validate:"gte=0"`
}

// MenuOrder is one row of a reorder request.
type MenuOrder struct {
	ID       string `json:"id" validate:"required"`
	Order    int    `json:"order" validate:"gte=0"`
	ParentID string `json:"parentId,omitempty"`
}

type RoleInput struct {
	Name        string `json:"name,omitempty" validate:"required,max=60"`
	Description string `json:"description,omitempty"`
}

type RolePermissionsInput struct {
	PermissionIDs []string `json:"permissionIds" validate:"required,min=1,dive,required"`
}
