package pdf

// Group applies the keep-together rules to a flat node list:
//   - tables, top-level lists, images and paragraphs become unbreakable groups
//   - nested lists are left unwrapped
//   - a run of headings directly before a group joins that group, so a
//     heading never ends a page alone
//
// Quote children are grouped recursively.
func Group(nodes []*Node) []*Node {
	wrapped := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		if node == nil || isBlank(node) {
			continue
		}
		wrapped = append(wrapped, wrap(node))
	}
	return mergeHeadings(wrapped)
}

func wrap(node *Node) *Node {
	switch node.Kind {
	case KindTable, KindImage, KindParagraph:
		return &Node{Kind: KindGroup, Unbreakable: true, Children: []*Node{node}, Align: node.Align}
	case KindList:
		if node.Nested {
			return node
		}
		return &Node{Kind: KindGroup, Unbreakable: true, Children: []*Node{node}}
	case KindQuote:
		node.Children = Group(node.Children)
		return node
	default:
		return node
	}
}

func mergeHeadings(nodes []*Node) []*Node {
	merged := make([]*Node, 0, len(nodes))
	for i := 0; i < len(nodes); {
		if nodes[i].Kind != KindHeading {
			merged = append(merged, nodes[i])
			i++
			continue
		}

		j := i
		for j < len(nodes) && nodes[j].Kind == KindHeading {
			j++
		}
		if j < len(nodes) && isUnbreakableGroup(nodes[j]) {
			group := *nodes[j]
			children := make([]*Node, 0, j-i+len(group.Children))
			children = append(children, nodes[i:j]...)
			group.Children = append(children, group.Children...)
			merged = append(merged, &group)
			i = j + 1
			continue
		}
		merged = append(merged, nodes[i:j]...)
		i = j
	}
	return merged
}

func isUnbreakableGroup(node *Node) bool {
	return node.Kind == KindGroup && node.Unbreakable
}

func isBlank(node *Node) bool {
	switch node.Kind {
	case KindParagraph, KindHeading:
		return len(node.Spans) == 0
	case KindList, KindQuote:
		return len(node.Children) == 0
	case KindTable:
		return node.Table == nil || len(node.Table.Rows) == 0
	case KindImage:
		return node.Image == nil || node.Image.Src == ""
	}
	return false
}
